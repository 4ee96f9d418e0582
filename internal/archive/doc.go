// Package archive loads the chat and memory records of a snapchat export.
//
// Records are read from json/chat_history.json and
// json/memories_history.json. Media references are kept lazy: a message
// only carries a MediaRef, which is resolved against the media index when
// the message is shown or audited.
package archive
