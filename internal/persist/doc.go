// Package persist debounces state saves.
//
// Relay changes can arrive in bursts (a double press toggles every outlet,
// a controller replays a scene). Writing each change straight to flash
// would wear it out, so the characteristic registry only marks entries
// dirty and arms the Scheduler. The Scheduler waits for a quiet period
// (one second by default) and then writes every dirty entry in one flush.
//
// Rules applied at flush time:
//   - dirty flags are cleared atomically with the snapshot, under the
//     registry lock; store writes happen after the lock is released;
//   - when the preserve-state entry is false, only that entry is written
//     and every other dirty flag is simply cleared;
//   - a failed write is logged and the key is marked dirty again without
//     re-arming, so it is retried with the next change rather than in a
//     tight loop.
//
// A power cut inside the quiet period loses at most that window of changes.
package persist
