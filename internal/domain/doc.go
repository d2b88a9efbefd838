// Package domain holds the learning entities (memory records, profiles,
// study plans, daily tasks, activities, achievements) and their validation.
// The engines that transform them live in the srs, planner and analytics
// subpackages.
package domain
