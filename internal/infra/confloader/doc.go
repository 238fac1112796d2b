// Package confloader loads layered configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Flags (LoadMap with only the flags the user set)
//  2. Environment variables
//  3. The YAML configuration file
//  4. Defaults already present in the target struct
//
// Environment variables carry a prefix and use a double underscore to
// separate levels, so a single underscore can stay inside a key:
//
//	SUPPLIER_STORAGE__BACKEND=badger      -> storage.backend
//	SUPPLIER_SESSION__MAX_AGE=1h          -> session.max_age
//
// Watcher reports changes to watched files through fsnotify.
package confloader
