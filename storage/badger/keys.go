package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/pitchroom/core"
)

// Key prefixes for different data types. Every prefix ends with a colon so
// that no prefix is a prefix of another.
const (
	documentPrefix        = "doc:"
	documentProjectPrefix = "docp:"
	documentStatusPrefix  = "docs:"
	documentIDSeq         = "seq:doc"
	chunkPrefix           = "chk:"
	chunkIDSeq            = "seq:chk"
	linkPrefix            = "lnk:"
	linkIDSeq             = "seq:lnk"
	conversationPrefix    = "conv:"
	conversationIDSeq     = "seq:conv"
	messagePrefix         = "msg:"
	messageIDSeq          = "seq:msg"
)

// compositeKey writes prefix followed by each part as a big-endian uint64,
// so that lexicographic key order matches numeric order.
func compositeKey(prefix string, parts ...uint64) []byte {
	buf := make([]byte, len(prefix)+8*len(parts))
	offset := copy(buf, prefix)
	for _, p := range parts {
		binary.BigEndian.PutUint64(buf[offset:], p)
		offset += 8
	}
	return buf
}

// lastID reads the trailing 8-byte ID of a composite key.
func lastID(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

func makeDocumentKey(id core.ID) []byte {
	return compositeKey(documentPrefix, uint64(id))
}

// Format: prefix:projectID:docID
func makeDocumentProjectKey(projectID, docID core.ID) []byte {
	return compositeKey(documentProjectPrefix, uint64(projectID), uint64(docID))
}

func makePartialDocumentProjectKey(projectID core.ID) []byte {
	return compositeKey(documentProjectPrefix, uint64(projectID))
}

// Format: prefix:status:docID
func makeDocumentStatusKey(status core.DocumentStatus, docID core.ID) []byte {
	return compositeKey(documentStatusPrefix, uint64(status), uint64(docID))
}

func makePartialDocumentStatusKey(status core.DocumentStatus) []byte {
	return compositeKey(documentStatusPrefix, uint64(status))
}

// makeChunkKey orders chunks by document, then chunk index.
// Format: prefix:docID:chunkIndex
func makeChunkKey(docID core.ID, chunkIndex int) []byte {
	return compositeKey(chunkPrefix, uint64(docID), uint64(chunkIndex))
}

func makePartialChunkKey(docID core.ID) []byte {
	return compositeKey(chunkPrefix, uint64(docID))
}

func makeLinkKey(id core.ID) []byte {
	return compositeKey(linkPrefix, uint64(id))
}

func makeConversationKey(id core.ID) []byte {
	return compositeKey(conversationPrefix, uint64(id))
}

// makeMessageKey orders a conversation's messages by timestamp, then ID.
// Format: prefix:conversationID:timestamp:messageID
func makeMessageKey(conversationID core.ID, ts time.Time, id core.ID) []byte {
	return compositeKey(messagePrefix, uint64(conversationID), uint64(ts.UnixMicro()), uint64(id))
}

func makePartialMessageKey(conversationID core.ID) []byte {
	return compositeKey(messagePrefix, uint64(conversationID))
}
