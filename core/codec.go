package core

import (
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// serializer is the subset of mus-go serializers the record codecs rely on.
type serializer[T any] interface {
	Marshal(v T, bs []byte) (n int)
	Unmarshal(bs []byte) (v T, n int, err error)
	Size(v T) (size int)
}

// encoder appends MUS encoded fields to a growing buffer.
type encoder struct {
	bs []byte
}

func put[T any](e *encoder, ser serializer[T], v T) {
	size := ser.Size(v)
	e.bs = slices.Grow(e.bs, size)
	n := ser.Marshal(v, e.bs[len(e.bs):len(e.bs)+size])
	e.bs = e.bs[:len(e.bs)+n]
}

func (e *encoder) id(v ID)         { put(e, varint.Uint64, uint64(v)) }
func (e *encoder) int(v int)       { put(e, varint.Int64, int64(v)) }
func (e *encoder) int64(v int64)   { put(e, varint.Int64, v) }
func (e *encoder) string(v string) { put(e, ord.String, v) }

func (e *encoder) bool(v bool) {
	var b uint32
	if v {
		b = 1
	}
	put(e, varint.Uint32, b)
}

func (e *encoder) float64(v float64) { put(e, varint.Uint64, math.Float64bits(v)) }

// Unix micro timestamps
func (e *encoder) time(v time.Time) {
	if v.IsZero() {
		e.int64(0)
		return
	}
	e.int64(v.UnixMicro())
}

func (e *encoder) vector(v []float32) {
	e.int(len(v))
	for _, f := range v {
		put(e, varint.Uint32, math.Float32bits(f))
	}
}

// decoder consumes MUS encoded fields. The first error sticks.
type decoder struct {
	bs  []byte
	err error
}

func get[T any](d *decoder, ser serializer[T]) T {
	var zero T
	if d.err != nil {
		return zero
	}
	v, n, err := ser.Unmarshal(d.bs)
	if err != nil {
		d.err = err
		return zero
	}
	d.bs = d.bs[n:]
	return v
}

func (d *decoder) id() ID         { return ID(get(d, varint.Uint64)) }
func (d *decoder) int() int       { return int(get(d, varint.Int64)) }
func (d *decoder) int64() int64   { return get(d, varint.Int64) }
func (d *decoder) string() string { return get(d, ord.String) }
func (d *decoder) bool() bool     { return get(d, varint.Uint32) == 1 }

func (d *decoder) float64() float64 { return math.Float64frombits(get(d, varint.Uint64)) }

func (d *decoder) time() time.Time {
	micros := d.int64()
	if micros == 0 {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}

func (d *decoder) vector() []float32 {
	n := d.int()
	if d.err != nil || n <= 0 {
		return nil
	}
	if n > len(d.bs) {
		d.err = ErrTruncated
		return nil
	}
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(get(d, varint.Uint32))
	}
	return v
}

// EncodeDocument serializes a Document.
func EncodeDocument(doc *Document) []byte {
	e := &encoder{}
	e.id(doc.Id)
	e.id(doc.ProjectId)
	e.string(doc.StoredName)
	e.string(doc.OriginalName)
	e.int64(doc.SizeBytes)
	e.string(doc.MediaType)
	e.id(doc.Checksum)
	e.int(int(doc.Status))
	e.int64(doc.TokenCount)
	e.int(doc.PageEstimate)
	e.string(doc.Error)
	e.time(doc.CreatedAt)
	e.time(doc.UpdatedAt)
	return e.bs
}

// DecodeDocument deserializes a Document.
func DecodeDocument(bs []byte) (Document, error) {
	d := &decoder{bs: bs}
	doc := Document{
		Id:           d.id(),
		ProjectId:    d.id(),
		StoredName:   d.string(),
		OriginalName: d.string(),
		SizeBytes:    d.int64(),
		MediaType:    d.string(),
		Checksum:     d.id(),
		Status:       DocumentStatus(d.int()),
		TokenCount:   d.int64(),
		PageEstimate: d.int(),
		Error:        d.string(),
		CreatedAt:    d.time(),
		UpdatedAt:    d.time(),
	}
	return doc, d.err
}

// EncodeChunk serializes a Chunk.
func EncodeChunk(chunk *Chunk) []byte {
	e := &encoder{}
	e.id(chunk.Id)
	e.id(chunk.DocumentId)
	e.id(chunk.ProjectId)
	e.string(chunk.Content)
	e.vector(chunk.Embedding)
	e.string(chunk.Metadata.SourceFilename)
	e.int(chunk.Metadata.Page)
	e.string(chunk.Metadata.Sheet)
	e.int(chunk.Metadata.ChunkIndex)
	e.int(chunk.TokenCount)
	e.int(chunk.ChunkIndex)
	return e.bs
}

// DecodeChunk deserializes a Chunk.
func DecodeChunk(bs []byte) (Chunk, error) {
	d := &decoder{bs: bs}
	chunk := Chunk{
		Id:         d.id(),
		DocumentId: d.id(),
		ProjectId:  d.id(),
		Content:    d.string(),
		Embedding:  d.vector(),
		Metadata: ChunkMetadata{
			SourceFilename: d.string(),
			Page:           d.int(),
			Sheet:          d.string(),
			ChunkIndex:     d.int(),
		},
		TokenCount: d.int(),
		ChunkIndex: d.int(),
	}
	return chunk, d.err
}

// EncodeLink serializes a Link.
func EncodeLink(link *Link) []byte {
	e := &encoder{}
	e.id(link.Id)
	e.id(link.ProjectId)
	e.bool(link.Active)
	e.time(link.CreatedAt)
	return e.bs
}

// DecodeLink deserializes a Link.
func DecodeLink(bs []byte) (Link, error) {
	d := &decoder{bs: bs}
	link := Link{
		Id:        d.id(),
		ProjectId: d.id(),
		Active:    d.bool(),
		CreatedAt: d.time(),
	}
	return link, d.err
}

// EncodeConversation serializes a Conversation.
func EncodeConversation(conv *Conversation) []byte {
	e := &encoder{}
	e.id(conv.Id)
	e.id(conv.LinkId)
	e.id(conv.ProjectId)
	e.string(conv.InvestorEmail)
	e.time(conv.StartedAt)
	e.int64(conv.TotalTokens)
	e.float64(conv.CostUSD)
	e.bool(conv.IsActive)
	return e.bs
}

// DecodeConversation deserializes a Conversation.
func DecodeConversation(bs []byte) (Conversation, error) {
	d := &decoder{bs: bs}
	conv := Conversation{
		Id:            d.id(),
		LinkId:        d.id(),
		ProjectId:     d.id(),
		InvestorEmail: d.string(),
		StartedAt:     d.time(),
		TotalTokens:   d.int64(),
		CostUSD:       d.float64(),
		IsActive:      d.bool(),
	}
	return conv, d.err
}

// EncodeMessage serializes a Message including its citations.
func EncodeMessage(msg *Message) []byte {
	e := &encoder{}
	e.id(msg.Id)
	e.id(msg.ConversationId)
	e.int(int(msg.Role))
	e.string(msg.Content)
	e.int(msg.TokenCount)
	e.int(len(msg.Citations))
	for _, c := range msg.Citations {
		e.string(c.Source)
		e.string(c.Excerpt)
		e.int(c.Page)
	}
	e.time(msg.Timestamp)
	return e.bs
}

// DecodeMessage deserializes a Message.
func DecodeMessage(bs []byte) (Message, error) {
	d := &decoder{bs: bs}
	msg := Message{
		Id:             d.id(),
		ConversationId: d.id(),
		Role:           Role(d.int()),
		Content:        d.string(),
		TokenCount:     d.int(),
	}
	n := d.int()
	if d.err == nil && n > len(d.bs) {
		d.err = ErrTruncated
	}
	if d.err == nil && n > 0 {
		msg.Citations = make([]Citation, n)
		for i := range msg.Citations {
			msg.Citations[i] = Citation{
				Source:  d.string(),
				Excerpt: d.string(),
				Page:    d.int(),
			}
		}
	}
	msg.Timestamp = d.time()
	return msg, d.err
}
