package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sop-assistant-api/internal/application/retrieval"
)

// fakeChatModel 记录收到的消息并返回固定回复
type fakeChatModel struct {
	reply    string
	err      error
	received []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.received = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func testResult() *retrieval.Result {
	return &retrieval.Result{
		Variants: []string{"ap", "accounts payable"},
		Passages: []retrieval.Passage{
			{SourceID: "invoice_sop_0", DisplayName: "Invoice Processing SOP.pdf", Content: "Match invoice to purchase order before payment."},
			{SourceID: "invoice_sop_1", DisplayName: "Invoice Processing SOP.pdf", Content: "Route exceptions to the AP supervisor."},
			{SourceID: "vendor_sop_0", DisplayName: "Vendor Setup SOP.pdf", Content: "Verify vendor W-9 before first payment."},
		},
	}
}

func TestCompose_EmptyResultSkipsModel(t *testing.T) {
	chat := &fakeChatModel{reply: "should not be called"}
	c := NewComposer(chat)

	got, err := c.Compose(context.Background(), "anything", &retrieval.Result{})
	require.NoError(t, err)
	assert.Equal(t, NoInformationMessage, got.Text)
	assert.Empty(t, got.Sources)
	assert.False(t, got.Grounded)
	assert.Nil(t, chat.received)
}

func TestCompose_PromptContainsContextAndQuestion(t *testing.T) {
	chat := &fakeChatModel{reply: "Match the invoice first."}
	c := NewComposer(chat)

	got, err := c.Compose(context.Background(), "how do we process ap invoices", testResult())
	require.NoError(t, err)
	assert.True(t, got.Grounded)

	require.Len(t, chat.received, 2)
	system := chat.received[0].Content
	user := chat.received[1].Content
	assert.Contains(t, system, "Standard Operating Procedures")
	assert.Contains(t, system, "accounts payable")
	assert.Contains(t, user, "**From Invoice Processing SOP.pdf:**")
	assert.Contains(t, user, "Question: how do we process ap invoices")
}

func TestCompose_SourcesDeduplicated(t *testing.T) {
	chat := &fakeChatModel{reply: "answer"}
	c := NewComposer(chat)

	got, err := c.Compose(context.Background(), "q", testResult())
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice Processing SOP.pdf", "Vendor Setup SOP.pdf"}, got.Sources)
}

func TestCompose_ModelFailurePropagates(t *testing.T) {
	chat := &fakeChatModel{err: errors.New("provider down")}
	c := NewComposer(chat)

	_, err := c.Compose(context.Background(), "q", testResult())
	assert.Error(t, err)
}

func TestFormatSOPReferences_WrapsFilenames(t *testing.T) {
	got := FormatSOPReferences("See Mixing SOP Rev3.pdf for details.")
	assert.Contains(t, got, `<span class="sop-reference-inline">`)
	assert.Contains(t, got, "Mixing SOP Rev3.pdf")
}

func TestFormatSOPReferences_AlreadyFormattedUntouched(t *testing.T) {
	in := `See <span class="sop-reference-inline">Mixing SOP Rev3.pdf</span> for details.`
	assert.Equal(t, in, FormatSOPReferences(in))
}

func TestFormatSOPReferences_NoFilenames(t *testing.T) {
	in := "No document references here."
	assert.Equal(t, in, FormatSOPReferences(in))
}
