package server

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"ember/heap"
	"ember/value"
	"ember/vm"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix_SimpleWord(t *testing.T) {
	text := "console.lo"
	pos := protocol.Position{Line: 0, Character: 10}
	prefix := extractPrefix(text, pos)
	if prefix != "lo" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "lo")
	}
}

func TestExtractPrefix_AtStart(t *testing.T) {
	text := "cou"
	pos := protocol.Position{Line: 0, Character: 3}
	prefix := extractPrefix(text, pos)
	if prefix != "cou" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "cou")
	}
}

func TestExtractPrefix_EmptyLine(t *testing.T) {
	text := ""
	pos := protocol.Position{Line: 0, Character: 0}
	prefix := extractPrefix(text, pos)
	if prefix != "" {
		t.Errorf("extractPrefix = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_MultiLine(t *testing.T) {
	text := "first line\nsecond line\nfoo"
	pos := protocol.Position{Line: 2, Character: 3}
	prefix := extractPrefix(text, pos)
	if prefix != "foo" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "foo")
	}
}

func TestExtractPrefix_AfterSpace(t *testing.T) {
	text := "var x = total"
	pos := protocol.Position{Line: 0, Character: 13}
	prefix := extractPrefix(text, pos)
	if prefix != "total" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "total")
	}
}

func TestExtractPrefix_CursorAtBeginning(t *testing.T) {
	text := "hello"
	pos := protocol.Position{Line: 0, Character: 0}
	prefix := extractPrefix(text, pos)
	if prefix != "" {
		t.Errorf("extractPrefix at position 0 = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_LineBeyondDocument(t *testing.T) {
	text := "single line"
	pos := protocol.Position{Line: 5, Character: 0}
	prefix := extractPrefix(text, pos)
	if prefix != "" {
		t.Errorf("extractPrefix beyond doc = %q, want empty string", prefix)
	}
}

// ---------------------------------------------------------------------------
// extractWord
// ---------------------------------------------------------------------------

func TestExtractWord_SimpleWord(t *testing.T) {
	text := "hello world"
	pos := protocol.Position{Line: 0, Character: 3}
	word := extractWord(text, pos)
	if word != "hello" {
		t.Errorf("extractWord = %q, want %q", word, "hello")
	}
}

func TestExtractWord_AtEnd(t *testing.T) {
	text := "hello world"
	pos := protocol.Position{Line: 0, Character: 5}
	word := extractWord(text, pos)
	if word != "hello" {
		t.Errorf("extractWord = %q, want %q", word, "hello")
	}
}

func TestExtractWord_SecondWord(t *testing.T) {
	text := "hello world"
	pos := protocol.Position{Line: 0, Character: 8}
	word := extractWord(text, pos)
	if word != "world" {
		t.Errorf("extractWord = %q, want %q", word, "world")
	}
}

func TestExtractWord_EmptyLine(t *testing.T) {
	text := ""
	pos := protocol.Position{Line: 0, Character: 0}
	word := extractWord(text, pos)
	if word != "" {
		t.Errorf("extractWord = %q, want empty string", word)
	}
}

func TestExtractWord_MultiLine(t *testing.T) {
	text := "first\nsecondWord"
	pos := protocol.Position{Line: 1, Character: 3}
	word := extractWord(text, pos)
	if word != "secondWord" {
		t.Errorf("extractWord = %q, want %q", word, "secondWord")
	}
}

func TestExtractWord_WithUnderscore(t *testing.T) {
	text := "my_var"
	pos := protocol.Position{Line: 0, Character: 3}
	word := extractWord(text, pos)
	if word != "my_var" {
		t.Errorf("extractWord = %q, want %q", word, "my_var")
	}
}

func TestExtractWord_LineBeyondDocument(t *testing.T) {
	text := "single line"
	pos := protocol.Position{Line: 5, Character: 0}
	word := extractWord(text, pos)
	if word != "" {
		t.Errorf("extractWord beyond doc = %q, want empty string", word)
	}
}

// ---------------------------------------------------------------------------
// boolPtr
// ---------------------------------------------------------------------------

func TestBoolPtr(t *testing.T) {
	p := boolPtr(true)
	if p == nil || *p != true {
		t.Errorf("boolPtr(true) = %v, want true", p)
	}
	p = boolPtr(false)
	if p == nil || *p != false {
		t.Errorf("boolPtr(false) = %v, want false", p)
	}
}

// ---------------------------------------------------------------------------
// LSP context-backed logic (complete, hover)
// ---------------------------------------------------------------------------

func newTestLSP(t *testing.T) *LspServer {
	t.Helper()
	rt := vm.NewRuntime(heap.Config{})
	ctx, err := vm.NewContext(rt)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	ctx.DefineGlobal("total", value.NumberValue(42))
	ctx.DefineGlobal("totalCount", value.NumberValue(7))
	if err := ctx.DefineGlobalFunction("touch", func(this value.Value, args []value.Value) (value.Value, error) {
		return value.UndefinedValue(), nil
	}); err != nil {
		t.Fatalf("DefineGlobalFunction: %v", err)
	}
	return &LspServer{
		worker: NewVMWorker(),
		ctx:    ctx,
		docs:   make(map[string]string),
	}
}

func TestLSP_Complete(t *testing.T) {
	lsp := newTestLSP(t)
	defer lsp.worker.Stop()

	result, err := lsp.worker.Do(func() interface{} {
		return lsp.complete("tot")
	})
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}
	items := result.([]protocol.CompletionItem)
	if len(items) != 2 {
		t.Fatalf("complete(\"tot\") returned %d items, want 2", len(items))
	}
	found := false
	for _, item := range items {
		if item.Label == "total" {
			found = true
		}
	}
	if !found {
		t.Error("complete(\"tot\") should include \"total\"")
	}
}

func TestLSP_Complete_FunctionKind(t *testing.T) {
	lsp := newTestLSP(t)
	defer lsp.worker.Stop()

	result, err := lsp.worker.Do(func() interface{} {
		return lsp.complete("touch")
	})
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}
	items := result.([]protocol.CompletionItem)
	if len(items) != 1 {
		t.Fatalf("complete(\"touch\") returned %d items, want 1", len(items))
	}
	if items[0].Kind == nil || *items[0].Kind != protocol.CompletionItemKindFunction {
		t.Error("touch completion should have Kind=Function")
	}
}

func TestLSP_Hover_KnownGlobal(t *testing.T) {
	lsp := newTestLSP(t)
	defer lsp.worker.Stop()

	result, err := lsp.worker.Do(func() interface{} {
		return lsp.hover("total")
	})
	if err != nil {
		t.Fatalf("hover returned error: %v", err)
	}
	if result == nil {
		t.Fatal("hover for \"total\" should return a result")
	}
	hover := result.(*protocol.Hover)
	mc, ok := hover.Contents.(protocol.MarkupContent)
	if !ok {
		t.Fatal("hover contents should be MarkupContent")
	}
	if mc.Kind != protocol.MarkupKindMarkdown {
		t.Errorf("hover markup kind = %q, want %q", mc.Kind, protocol.MarkupKindMarkdown)
	}
	if mc.Value == "" {
		t.Error("hover content should not be empty")
	}
}

func TestLSP_Hover_UnknownWord(t *testing.T) {
	lsp := newTestLSP(t)
	defer lsp.worker.Stop()

	result, err := lsp.worker.Do(func() interface{} {
		return lsp.hover("noSuchGlobal99")
	})
	if err != nil {
		t.Fatalf("hover returned error: %v", err)
	}
	if hover, ok := result.(*protocol.Hover); ok && hover != nil {
		t.Error("hover for an unknown global should return nil")
	}
}

// ---------------------------------------------------------------------------
// LSP document synchronization state
// ---------------------------------------------------------------------------

func TestLSP_DocumentStore(t *testing.T) {
	lsp := newTestLSP(t)
	defer lsp.worker.Stop()

	lsp.mu.Lock()
	lsp.docs["file:///test.ember"] = "var x = 1;"
	lsp.mu.Unlock()

	lsp.mu.Lock()
	text, ok := lsp.docs["file:///test.ember"]
	lsp.mu.Unlock()
	if !ok {
		t.Error("document should be stored after open")
	}
	if text != "var x = 1;" {
		t.Errorf("document text = %q, want %q", text, "var x = 1;")
	}

	lsp.mu.Lock()
	delete(lsp.docs, "file:///test.ember")
	lsp.mu.Unlock()

	lsp.mu.Lock()
	_, ok = lsp.docs["file:///test.ember"]
	lsp.mu.Unlock()
	if ok {
		t.Error("document should be removed after close")
	}
}
