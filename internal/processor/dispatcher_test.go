package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aktagon/inbox-sorter/internal/content"
)

// stubProcessor mirrors a handler in a chain: it records calls and returns a
// fixed result.
type stubProcessor struct {
	name  string
	out   content.ProcessedContent
	err   error
	panic bool
	calls int
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) Process(ctx context.Context, rec content.SourceRecord) (content.ProcessedContent, error) {
	s.calls++
	if s.panic {
		panic("nil map write")
	}
	return s.out, s.err
}

func stubs() (Processors, map[string]*stubProcessor) {
	byName := map[string]*stubProcessor{}
	mk := func(name string) *stubProcessor {
		s := &stubProcessor{name: name, out: content.ProcessedContent{Title: name}}
		byName[name] = s
		return s
	}
	social := mk(AgentSocialVideo)
	return Processors{
		Text:        mk(AgentText),
		YouTube:     mk(AgentVideo),
		Instagram:   mk(AgentInstagram),
		Website:     mk(AgentWebsite),
		Document:    mk(AgentDocument),
		Image:       mk(AgentImage),
		SocialVideo: func(content.Platform) Processor { return social },
	}, byName
}

func TestSelect(t *testing.T) {
	procs, _ := stubs()
	d := NewDispatcher(procs, nil)

	tests := []struct {
		label content.Label
		want  string
	}{
		{content.Label{Type: content.TypeText, Platform: content.PlatformText}, AgentText},
		{content.Label{Type: content.TypeVideo, Platform: content.PlatformYouTube}, AgentVideo},
		{content.Label{Type: content.TypeVideo, Platform: content.PlatformInstagram}, AgentSocialVideo},
		{content.Label{Type: content.TypeVideo, Platform: content.PlatformTikTok}, AgentSocialVideo},
		{content.Label{Type: content.TypeWebsite, Platform: content.PlatformInstagram}, AgentInstagram},
		{content.Label{Type: content.TypeWebsite, Platform: content.PlatformWeb}, AgentWebsite},
		{content.Label{Type: content.TypeDocument, Platform: "pdf"}, AgentDocument},
		{content.Label{Type: content.TypeImage, Platform: "png"}, AgentImage},
	}
	for _, tt := range tests {
		t.Run(tt.label.String(), func(t *testing.T) {
			p := d.Select(tt.label)
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestSelectIsTotal(t *testing.T) {
	procs, _ := stubs()
	d := NewDispatcher(procs, nil)

	for _, typ := range content.AllTypes {
		label := content.Label{Type: typ, Platform: content.PlatformWeb}
		res := d.Dispatch(context.Background(), content.SourceRecord{ID: "r"}, label)
		switch typ {
		case content.TypeManualProcessing, content.TypeUnknown:
			assert.Equal(t, StatusUnsupported, res.Status, typ)
		default:
			assert.Equal(t, StatusOK, res.Status, typ)
		}
		assert.NotEmpty(t, res.Content.ProcessingAgent, typ)
	}
}

func TestDispatchUnsupportedDoesNotInvokeProcessors(t *testing.T) {
	procs, byName := stubs()
	d := NewDispatcher(procs, nil)

	for _, label := range []content.Label{
		content.UnknownLabel,
		{Type: content.TypeManualProcessing, Platform: content.PlatformFacebook},
	} {
		res := d.Dispatch(context.Background(), content.SourceRecord{ID: "r1", DisplayName: "thing"}, label)
		assert.Equal(t, StatusUnsupported, res.Status)
		assert.ErrorIs(t, res.Err, ErrUnsupported)
		assert.NotEmpty(t, res.Content.Error)
	}
	for name, s := range byName {
		assert.Zero(t, s.calls, name)
	}
}

func TestDispatchContainsProcessorError(t *testing.T) {
	procs, byName := stubs()
	byName[AgentWebsite].err = errors.New("HTTP 503 for https://example.com")
	d := NewDispatcher(procs, nil)

	res := d.Dispatch(context.Background(), content.SourceRecord{ID: "r2", Link: "https://example.com"},
		content.Label{Type: content.TypeWebsite, Platform: content.PlatformWeb})

	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, AgentWebsite, res.Content.ProcessingAgent)
	assert.Equal(t, "Error processing https://example.com", res.Content.Title)
	assert.Contains(t, res.Content.Error, "HTTP 503")
	assert.True(t, res.Content.Degraded())
}

func TestDispatchRecoversPanic(t *testing.T) {
	procs, byName := stubs()
	byName[AgentImage].panic = true
	d := NewDispatcher(procs, nil)

	var res Result
	require.NotPanics(t, func() {
		res = d.Dispatch(context.Background(), content.SourceRecord{ID: "r3", File: &content.FileRef{URL: "u", Name: "cat.png"}},
			content.Label{Type: content.TypeImage, Platform: "png"})
	})
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "Error processing cat.png", res.Content.Title)
	assert.Contains(t, res.Content.Error, "panic")
}

func TestDispatchFillsProcessingAgent(t *testing.T) {
	procs, byName := stubs()
	byName[AgentText].out = content.ProcessedContent{Title: "x"}
	d := NewDispatcher(procs, nil)

	res := d.Dispatch(context.Background(), content.SourceRecord{}, content.Label{Type: content.TypeText, Platform: content.PlatformText})
	assert.Equal(t, AgentText, res.Content.ProcessingAgent)
	assert.Equal(t, AgentText, res.Processor)
}

func TestDispatchMissingProcessor(t *testing.T) {
	d := NewDispatcher(Processors{}, nil)
	res := d.Dispatch(context.Background(), content.SourceRecord{ID: "r4"}, content.Label{Type: content.TypeVideo, Platform: content.PlatformTikTok})
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Error(t, res.Err)
}
