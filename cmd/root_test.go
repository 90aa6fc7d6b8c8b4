package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/math-mentor/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "solve", "classify"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "math-mentor", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSolveCommand_Flags(t *testing.T) {
	tests := []struct {
		name string
		def  string
	}{
		{"confidence", "1"},
		{"mode", "text"},
		{"hitl", "false"},
	}
	for _, tt := range tests {
		flag := solveCmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, "solve command should have --%s flag", tt.name)
		assert.Equal(t, tt.def, flag.DefValue)
	}
}

func TestRunSolve_PrintsJSON(t *testing.T) {
	s := &mockSolver{}
	q := model.Question{Text: "2+2", InputMode: "text", Confidence: 1.0}
	s.On("Solve", mock.Anything, q).Return(sampleResponse(), nil).Once()

	var out bytes.Buffer
	require.NoError(t, runSolve(context.Background(), s, q, &out))

	var got model.SolutionResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "x = 2, 3", got.FinalAnswer.Latex)
	assert.Contains(t, out.String(), "\n  \"finalAnswer\"")
}

func TestRunSolve_Error(t *testing.T) {
	s := &mockSolver{}
	s.On("Solve", mock.Anything, mock.Anything).Return(nil, errors.New("pipeline: parser: context canceled"))

	var out bytes.Buffer
	err := runSolve(context.Background(), s, model.Question{Text: "2+2"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: parser")
	assert.Empty(t, out.String())
}

func TestRunClassify(t *testing.T) {
	tests := []struct {
		text      string
		want      string
		wantReply bool
	}{
		{"Solve x^2 - 5x + 6 = 0", "math (signal: keyword)", false},
		{"hello", "casual (signal: casual)", true},
		{"tell me a story", "casual (signal: none)", true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var out bytes.Buffer
			runClassify(tt.text, &out)
			assert.Contains(t, out.String(), tt.want)
			assert.Equal(t, tt.wantReply, bytes.Contains(out.Bytes(), []byte("reply: ")))
		})
	}
}
