// Package wizard implements the step/tab state machine at the core of
// calcwizard.
//
// A wizard is an ordered list of [Step] values, each holding ordered [Tab]
// values and a map from tab title to that tab's [Data]. The [Machine] owns the
// list and exposes the transitions:
//
//   - SetTabData merges into one tab's data.
//   - Confirm locks a step and advances, provided its predecessor is confirmed.
//   - Modify reopens a step; every later step is unconfirmed and gets its
//     seeded data back.
//   - Hydrate loads a submitted job read-only.
//
// A step may declare a visibility [Ref] pointing at a property map in an
// earlier step. [Machine.VisibleTabs] filters the step's tabs through that
// map live, so visibility follows in-progress edits upstream.
//
// [Accumulate] flattens the step list into a [Payload] for submission or
// preview, and [RenameKeys] maps step keys to stable external identifiers.
package wizard
