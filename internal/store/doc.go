// Package store persists characteristic values and boot sessions.
//
// Values are kept one row per key in the characteristics table, written
// with a single UPSERT so a torn write cannot happen. A key that was never
// saved is reported as not found; callers fall back to the entry's default.
// Keys the registry no longer knows are ignored by the loader.
//
// Boot sessions record every process start and how it ended. A session
// with no end reason means the previous run died (power loss, crash,
// watchdog), which the lifecycle controller reports as a diagnostic.
//
// MemoryStore and MemorySessions are in-memory equivalents with failure
// injection for tests.
package store
