// Package plugin discovers the plugins that contribute tabs to the wizard.
//
// A plugin is described by a [Descriptor] holding display metadata and up to
// three optional capabilities: a [SettingsProvider] contributes a tab to the
// workflow step, a [ResourceProvider] to the resources step, and a
// [ResultsProvider] to the status step. A nil capability means the plugin
// contributes nothing there.
//
// Descriptors come from a [Source]: [StaticSource] for build-time
// registration, [HTTPSource] for a plugin server, and [DirSource] for
// manifests on disk. A [Registry] resolves a source into an ordered
// descriptor list, loading each id at most once at a time and remembering
// successful loads. A plugin that fails to load resolves to an unavailable
// placeholder instead of failing the list.
package plugin
