package hl7

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPosition(t *testing.T) {
	tests := []struct {
		name   string
		parent Level
		header bool
		index  int
		want   error
	}{
		{"header segment", LevelMessage, false, 1, ErrInvalidMutation},
		{"second segment", LevelMessage, false, 2, nil},
		{"segment type", LevelSegment, false, 0, ErrInvalidMutation},
		{"MSH-1", LevelSegment, true, 1, ErrInvalidMutation},
		{"MSH-2", LevelSegment, true, 2, ErrInvalidMutation},
		{"MSH-3", LevelSegment, true, 3, nil},
		{"field 1 of other segment", LevelSegment, false, 1, nil},
		{"repetition zero", LevelField, false, 0, ErrInvalidIndex},
		{"component", LevelRepetition, false, 4, nil},
	}

	for _, tt := range tests {
		err := CheckPosition(tt.parent, tt.header, tt.index)
		if tt.want == nil {
			assert.NoError(t, err, tt.name)
		} else {
			assert.ErrorIs(t, err, tt.want, tt.name)
		}
	}
}

func TestCheckHeaderField(t *testing.T) {
	enc := DefaultEncoding

	assert.NoError(t, CheckHeaderField(1, "#", enc))
	assert.ErrorIs(t, CheckHeaderField(1, "", enc), ErrInvalidMutation)
	assert.ErrorIs(t, CheckHeaderField(1, "##", enc), ErrInvalidMutation)
	assert.ErrorIs(t, CheckHeaderField(1, "\r", enc), ErrInvalidMutation)

	assert.NoError(t, CheckHeaderField(2, "^~", enc))
	assert.NoError(t, CheckHeaderField(2, "", enc))
	assert.ErrorIs(t, CheckHeaderField(2, "^|", enc), ErrInvalidMutation)
	assert.ErrorIs(t, CheckHeaderField(2, "^\r", enc), ErrInvalidMutation)

	assert.NoError(t, CheckHeaderField(3, "anything|goes", enc))
}

func TestCheckHeaders(t *testing.T) {
	before := "MSH|^~\\&|\rPID|1"

	assert.NoError(t, CheckHeaders(before, before+"\rPV1|1"))
	assert.ErrorIs(t, CheckHeaders(before, before+"\rMSH"), ErrInvalidMutation)
	assert.ErrorIs(t, CheckHeaders(before, before+"\rMSH|x"), ErrInvalidMutation)
	assert.NoError(t, CheckHeaders(before, before+"\rMSHX|1"))

	batch := before + "\rMSH|^~\\&|"
	assert.NoError(t, CheckHeaders(batch, batch+"\rOBX|1"))
}

func TestLateHeaders(t *testing.T) {
	enc := DefaultEncoding

	tests := []struct {
		text string
		want int
	}{
		{"MSH|^~\\&|", 0},
		{"MSH|^~\\&|\rPID|1", 0},
		{"MSH|^~\\&|\rMSH", 1},
		{"MSH|^~\\&|\rMSH|x\rPID\rMSH", 2},
		{"MSH|^~\\&|\rMSHA|1\rXMSH", 0},
		{"\rMSH", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LateHeaders(tt.text, enc), "%q", tt.text)
	}
}

func TestSegmentType(t *testing.T) {
	assert.Equal(t, "PID", SegmentType("PID|1|2", DefaultEncoding))
	assert.Equal(t, "MSH", SegmentType("MSH", DefaultEncoding))
	assert.Equal(t, "", SegmentType("", DefaultEncoding))
	assert.Equal(t, "PID|1", SegmentType("PID|1", Encoding{}))
}
