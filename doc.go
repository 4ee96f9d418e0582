// Command snapcapsule links and repairs the media in a Snapchat data export.
//
// It indexes the chat_media and memories folders, resolves the Media IDs
// in chat_history.json and the dates in memories_history.json to files,
// reports how many references are intact, and repairs media saved under
// the wrong type with backups that can be reverted. The serve command
// exposes the same operations over HTTP.
//
// See the cli package for the command set and the startup package for
// configuration.
package main
