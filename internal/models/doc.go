// Package models defines the user record of the radio application and helpers for building patches.
//
// Records are stored as opaque JSON objects; [UserProfile] is the typed view the CLI and HTTP API use to read them.
//
//   - [DefaultUserRecord] : the record persisted the first time a username is read
//   - [ProfileFromRecord] : decode a record into a [UserProfile]
//   - [PointsPatch], [FavoritePatch], [RolePatch], [ParsePatch] : patches for the serialized update path
package models
