// Package confloader loads configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags, via LoadMap)
//  2. Environment variables (MOBSESSION_SECTION__KEY)
//  3. Configuration file (YAML)
//  4. Values already present in the target struct
//
// Watcher reports changes to the configuration file so long-running
// commands can reload it.
package confloader
