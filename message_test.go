package omnirag_test

import (
	"testing"

	"github.com/fwojciec/omnirag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webGrounding(uris ...string) *omnirag.Grounding {
	g := &omnirag.Grounding{}
	for _, u := range uris {
		g.Citations = append(g.Citations, omnirag.Citation{Web: &omnirag.WebReference{URI: u, Title: u}})
	}
	return g
}

func TestGrounding_Empty(t *testing.T) {
	t.Parallel()
	var nilGrounding *omnirag.Grounding
	assert.True(t, nilGrounding.Empty())
	assert.True(t, (&omnirag.Grounding{Queries: []string{"q"}}).Empty())
	assert.False(t, webGrounding("https://a").Empty())
}

func TestGrounding_Clone(t *testing.T) {
	t.Parallel()
	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		var g *omnirag.Grounding
		assert.Nil(t, g.Clone())
	})

	t.Run("deep copy", func(t *testing.T) {
		t.Parallel()
		g := webGrounding("https://a")
		g.Queries = []string{"capital of France"}
		g.SearchEntryPoint = "<div></div>"
		c := g.Clone()
		require.Equal(t, g, c)

		c.Citations[0].Web.URI = "changed"
		c.Queries[0] = "changed"
		assert.Equal(t, "https://a", g.Citations[0].Web.URI)
		assert.Equal(t, "capital of France", g.Queries[0])
	})

	t.Run("citation without web reference", func(t *testing.T) {
		t.Parallel()
		g := &omnirag.Grounding{Citations: []omnirag.Citation{{}}}
		c := g.Clone()
		require.Len(t, c.Citations, 1)
		assert.Nil(t, c.Citations[0].Web)
	})
}

func TestMergeGrounding(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		prev *omnirag.Grounding
		next *omnirag.Grounding
		want *omnirag.Grounding
	}{
		{"both nil", nil, nil, nil},
		{"first grounding", nil, webGrounding("https://a"), webGrounding("https://a")},
		{"nil keeps previous", webGrounding("https://a"), nil, webGrounding("https://a")},
		{"empty keeps previous", webGrounding("https://a"), &omnirag.Grounding{}, webGrounding("https://a")},
		{"non-empty replaces", webGrounding("https://a"), webGrounding("https://b"), webGrounding("https://b")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, omnirag.MergeGrounding(tt.prev, tt.next))
		})
	}

	t.Run("result does not alias next", func(t *testing.T) {
		t.Parallel()
		next := webGrounding("https://a")
		got := omnirag.MergeGrounding(nil, next)
		next.Citations[0].Web.URI = "changed"
		assert.Equal(t, "https://a", got.Citations[0].Web.URI)
	})
}

func TestMessage_Citations(t *testing.T) {
	t.Parallel()
	assert.Nil(t, omnirag.Message{}.Citations())
	m := omnirag.Message{Grounding: webGrounding("https://a", "https://b")}
	assert.Len(t, m.Citations(), 2)
}

func TestStatus_Busy(t *testing.T) {
	t.Parallel()
	assert.False(t, omnirag.StatusIdle.Busy())
	assert.True(t, omnirag.StatusLoading.Busy())
	assert.True(t, omnirag.StatusStreaming.Busy())
	assert.False(t, omnirag.StatusError.Busy())
}

func TestParseHistoryPolicy(t *testing.T) {
	t.Parallel()
	p, err := omnirag.ParseHistoryPolicy("")
	require.NoError(t, err)
	assert.Equal(t, omnirag.HistorySoftReset, p)

	p, err = omnirag.ParseHistoryPolicy("replay")
	require.NoError(t, err)
	assert.Equal(t, omnirag.HistoryReplay, p)

	_, err = omnirag.ParseHistoryPolicy("forget")
	assert.ErrorIs(t, err, omnirag.ErrValidation)
}

func TestSessionConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     omnirag.SessionConfig
		wantErr bool
	}{
		{"defaults", omnirag.SessionConfig{Temperature: omnirag.DefaultTemperature, MaxOutputTokens: omnirag.DefaultMaxOutputTokens}, false},
		{"zero value", omnirag.SessionConfig{}, false},
		{"negative temperature", omnirag.SessionConfig{Temperature: -0.1}, true},
		{"temperature too high", omnirag.SessionConfig{Temperature: 2.5}, true},
		{"negative max tokens", omnirag.SessionConfig{MaxOutputTokens: -1}, true},
		{"history with user and model", omnirag.SessionConfig{History: []omnirag.Message{
			{Role: omnirag.RoleUser, Content: "hi"},
			{Role: omnirag.RoleModel, Content: "hello"},
		}}, false},
		{"history with system message", omnirag.SessionConfig{History: []omnirag.Message{
			{Role: omnirag.RoleSystem, Content: "x"},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, omnirag.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
