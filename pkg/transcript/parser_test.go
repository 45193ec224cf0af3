package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVTT(t *testing.T) {
	vttContent := `WEBVTT
Kind: captions

NOTE recorded in the kitchen

intro
00:00:01.040 --> 00:00:02.330
<v Anh>How do you read this?</v>

00:00:03.200 --> 00:00:05.050 align:start
<v.loud Mai>このリンゴ、</v>
<i>おいしいね！</i>
`

	transcript, err := NewParser().Parse(vttContent, FormatVTT)
	require.NoError(t, err)
	require.Len(t, transcript.Segments, 2)

	first := transcript.Segments[0]
	assert.Equal(t, 1040*time.Millisecond, first.Start)
	assert.Equal(t, int64(2330), first.EndMsec())
	assert.Equal(t, "How do you read this?", first.Text)
	assert.Equal(t, "Anh", first.Speaker)

	second := transcript.Segments[1]
	assert.Equal(t, int64(3200), second.StartMsec())
	assert.Equal(t, "このリンゴ、 おいしいね！", second.Text)
	assert.Equal(t, "Mai", second.Speaker)

	assert.Equal(t, 5050*time.Millisecond, transcript.Duration)
	assert.Equal(t, "How do you read this? このリンゴ、 おいしいね！", transcript.ToPlainText())
}

func TestParseSRT(t *testing.T) {
	srtContent := "1\r\n00:00:00,000 --> 00:00:03,000\r\nWelcome to the recording.\r\n\r\n" +
		"2\r\n00:00:03,000 --> 00:00:06,000\r\nToday we're discussing\r\nGo programming.\r\n\r\n" +
		"3\r\n00:00:06,000 --> 00:00:10,500\r\n42\r\n"

	transcript, err := NewParser().Parse(srtContent, FormatSRT)
	require.NoError(t, err)
	require.Len(t, transcript.Segments, 3)
	assert.Equal(t, "Today we're discussing Go programming.", transcript.Segments[1].Text)
	assert.Equal(t, "42", transcript.Segments[2].Text, "digit-only text after a timing line is cue text")
	assert.Equal(t, 10500*time.Millisecond, transcript.Duration)
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"array with camelCase", `[{"startTime": 1.04, "endTime": 2.33, "body": "hello", "speaker": "Anh"}]`},
		{"object with snake_case", `{"segments": [{"start_time": 1.04, "end_time": 2.33, "text": " hello "}]}`},
		{"short keys", `[{"start": 1.04, "end": 2.33, "text": "hello"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcript, err := NewParser().Parse(tt.content, FormatJSON)
			require.NoError(t, err)
			require.Len(t, transcript.Segments, 1)
			assert.Equal(t, int64(1040), transcript.Segments[0].StartMsec())
			assert.Equal(t, int64(2330), transcript.Segments[0].EndMsec())
			assert.Equal(t, "hello", transcript.Segments[0].Text)
		})
	}

	_, err := NewParser().Parse("not json", FormatJSON)
	assert.Error(t, err)
}

func TestParseText(t *testing.T) {
	transcript, err := NewParser().Parse("  just words \n", FormatText)
	require.NoError(t, err)
	assert.Empty(t, transcript.Segments)
	assert.Equal(t, "just words", transcript.ToPlainText())
}

func TestParseUnsupported(t *testing.T) {
	_, err := NewParser().Parse("x", TranscriptFormat("ass"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" WebVTT ")
	require.NoError(t, err)
	assert.Equal(t, FormatVTT, f)
	f, err = ParseFormat("SRT")
	require.NoError(t, err)
	assert.Equal(t, FormatSRT, f)
	_, err = ParseFormat("doc")
	assert.Error(t, err)
}
