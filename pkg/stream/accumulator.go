package stream

import (
	"sort"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	jsonrepair "github.com/mutablelogic/go-llmstream/pkg/jsonrepair"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Accumulator folds provider block deltas into an ordered lifecycle of
// start and end events, assembling the final response as it goes. Each
// provider block index maps onto a canonical zero-based index assigned
// in order of first appearance; providers without explicit block
// boundaries (implicit mode) synthesize their own indices via NextImplicit.
type Accumulator struct {
	stream   *Stream
	response *schema.Response

	// open maps a provider block index to its canonical index
	open map[int]int
	// order of canonical indices still open, ascending
	openOrder []int
	// pendingArgs holds partial tool-call JSON per canonical index
	pendingArgs map[int]string
	// kind of each open canonical block, by canonical index
	kinds map[int]string

	// next canonical index to assign
	next int
	// next synthetic index for implicit-mode blocks, descending
	implicit int
	// canonical index of the current implicit block, -1 when none
	current int
	// seen tool-call IDs, for duplicate detection
	toolIDs map[string]bool

	finished bool
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewAccumulator returns an accumulator emitting into stream, tagged
// with the provider and model names.
func NewAccumulator(stream *Stream, provider, model string) *Accumulator {
	a := &Accumulator{
		stream:      stream,
		response:    schema.NewResponse(provider, model),
		open:        make(map[int]int),
		pendingArgs: make(map[int]string),
		kinds:       make(map[int]string),
		implicit:    -1,
		current:     -1,
		toolIDs:     make(map[string]bool),
	}
	a.stream.Push(schema.Event{Type: schema.EventStart, Response: a.response.Clone()})
	return a
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Response returns the response under assembly
func (a *Accumulator) Response() *schema.Response {
	return a.response
}

// Open starts a block at the provider index. Opening an index that is
// already open is a no-op; once the index has been closed, a reopen
// starts a fresh block at a new canonical index. Tool-call blocks carry
// the call id and name; a missing or previously seen id is replaced
// with a fresh one so every tool call in the response is uniquely
// addressable.
func (a *Accumulator) Open(index int, kind string, block *schema.ContentBlock) {
	if a.finished {
		return
	}
	if _, exists := a.open[index]; exists {
		return
	}

	canonical := a.next
	a.next++
	a.open[index] = canonical
	a.openOrder = append(a.openOrder, canonical)
	a.kinds[canonical] = kind

	if block == nil {
		block = &schema.ContentBlock{Type: kind}
	}
	if kind == schema.ContentTypeToolCall {
		if block.ToolCall == nil {
			block.ToolCall = &schema.ToolCall{}
		}
		if block.ToolCall.ID == "" || a.toolIDs[block.ToolCall.ID] {
			block.ToolCall.ID = uuid.NewString()
		}
		a.toolIDs[block.ToolCall.ID] = true
	}
	a.response.Content = append(a.response.Content, *block)
	snapshot := a.response.Content[canonical].Clone()
	a.stream.Push(schema.Event{
		Type:  startEvent(kind),
		Index: canonical,
		Block: &snapshot,
	})
}

// Delta appends streamed content to the block at the provider index.
// Text and thinking deltas extend the block text; tool-call deltas
// extend the pending argument JSON. A delta for an unopened index
// opens a block of the delta's kind first.
func (a *Accumulator) Delta(index int, kind string, delta string) {
	if a.finished || delta == "" {
		return
	}
	canonical, exists := a.open[index]
	if !exists {
		a.Open(index, kind, nil)
		canonical = a.open[index]
	}

	block := &a.response.Content[canonical]
	event := schema.Event{
		Type:  deltaEvent(a.kinds[canonical]),
		Index: canonical,
		Delta: delta,
	}
	switch a.kinds[canonical] {
	case schema.ContentTypeToolCall:
		a.pendingArgs[canonical] += delta
		args := jsonrepair.Parse(a.pendingArgs[canonical])
		block.ToolCall.Arguments = args
		event.Arguments = args
	default:
		if block.Text == nil {
			block.Text = new(string)
		}
		*block.Text += delta
	}
	a.stream.Push(event)
}

// Signature records a thinking-block signature without emitting a delta
func (a *Accumulator) Signature(index int, signature string) {
	if a.finished {
		return
	}
	if canonical, exists := a.open[index]; exists {
		block := &a.response.Content[canonical]
		if block.Signature == nil {
			block.Signature = new(string)
		}
		*block.Signature += signature
	}
}

// Close ends the block at the provider index, parsing any pending
// tool-call arguments. Closing an unopened index is a no-op.
func (a *Accumulator) Close(index int) {
	if a.finished {
		return
	}
	a.closeProvider(index)
}

// Implicit routes a delta from a provider without block boundaries.
// A new block is opened whenever the kind changes from the current
// implicit block; tool calls carry their own provider indices and are
// handled through Open and Delta instead.
func (a *Accumulator) Implicit(kind string, delta string) {
	if a.finished || delta == "" {
		return
	}
	if a.current < 0 || a.kinds[a.current] != kind {
		a.CloseImplicit()
		index := a.implicit
		a.implicit--
		a.Open(index, kind, nil)
		a.current = a.open[index]
	}
	// find the provider index of the current implicit block
	for provider, canonical := range a.open {
		if canonical == a.current {
			a.Delta(provider, kind, delta)
			return
		}
	}
}

// CloseImplicit ends the current implicit block, if any
func (a *Accumulator) CloseImplicit() {
	if a.current < 0 {
		return
	}
	for provider, canonical := range a.open {
		if canonical == a.current {
			a.closeProvider(provider)
			break
		}
	}
	a.current = -1
}

// Usage merges token counts into the response and emits a usage event
func (a *Accumulator) Usage(usage schema.Usage) {
	if a.finished {
		return
	}
	a.response.Usage.Add(usage)
	a.stream.Push(schema.Event{Type: schema.EventUsage, Response: a.response.Clone()})
}

// Finish closes any blocks still open in ascending canonical order,
// stamps the stop reason and emits the terminal done event.
func (a *Accumulator) Finish(stop schema.StopReason) {
	if a.finished {
		return
	}
	a.closeAll()
	a.finished = true
	a.response.StopReason = stop
	a.response.Created = time.Now()
	a.stream.Push(schema.Event{Type: schema.EventDone, Response: a.response.Clone()})
	a.stream.End()
}

// Fail closes any open blocks, marks the response as failed and emits
// the terminal error event carrying the partial response.
func (a *Accumulator) Fail(err error) {
	a.fail(schema.StopReasonError, err)
}

// Abort is Fail for cooperative cancellation: the response carries stop
// reason aborted instead of error.
func (a *Accumulator) Abort(err error) {
	a.fail(schema.StopReasonAborted, err)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (a *Accumulator) fail(stop schema.StopReason, err error) {
	if a.finished {
		return
	}
	a.closeAll()
	a.finished = true
	a.response.StopReason = stop
	a.response.Error = err.Error()
	a.response.Created = time.Now()
	a.stream.Push(schema.Event{Type: schema.EventError, Response: a.response.Clone(), Err: err})
	a.stream.End()
}

func (a *Accumulator) closeProvider(index int) {
	canonical, exists := a.open[index]
	if !exists {
		return
	}
	delete(a.open, index)
	for i, c := range a.openOrder {
		if c == canonical {
			a.openOrder = append(a.openOrder[:i], a.openOrder[i+1:]...)
			break
		}
	}
	if a.current == canonical {
		a.current = -1
	}
	a.closeCanonical(canonical)
}

func (a *Accumulator) closeCanonical(canonical int) {
	kind := a.kinds[canonical]
	block := &a.response.Content[canonical]
	if kind == schema.ContentTypeToolCall {
		args := jsonrepair.Parse(a.pendingArgs[canonical])
		delete(a.pendingArgs, canonical)
		block.ToolCall.Arguments = args
	}

	snapshot := block.Clone()
	event := schema.Event{
		Type:  endEvent(kind),
		Index: canonical,
		Block: &snapshot,
	}
	if kind == schema.ContentTypeToolCall {
		event.Arguments = snapshot.ToolCall.Arguments
	}
	a.stream.Push(event)
}

// closeAll ends every open block in ascending canonical order
func (a *Accumulator) closeAll() {
	order := append([]int(nil), a.openOrder...)
	sort.Ints(order)
	a.openOrder = nil
	a.open = make(map[int]int)
	a.current = -1
	for _, canonical := range order {
		a.closeCanonical(canonical)
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE FUNCTIONS

func startEvent(kind string) string {
	switch kind {
	case schema.ContentTypeThinking:
		return schema.EventThinkingStart
	case schema.ContentTypeToolCall:
		return schema.EventToolCallStart
	default:
		return schema.EventTextStart
	}
}

func deltaEvent(kind string) string {
	switch kind {
	case schema.ContentTypeThinking:
		return schema.EventThinkingDelta
	case schema.ContentTypeToolCall:
		return schema.EventToolCallDelta
	default:
		return schema.EventTextDelta
	}
}

func endEvent(kind string) string {
	switch kind {
	case schema.ContentTypeThinking:
		return schema.EventThinkingEnd
	case schema.ContentTypeToolCall:
		return schema.EventToolCallEnd
	default:
		return schema.EventTextEnd
	}
}
