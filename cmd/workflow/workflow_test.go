package workflow

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagan/promptmeta/cmd"
	"github.com/sagan/promptmeta/features/aimeta"
	"github.com/sagan/promptmeta/features/imagecodec/imagecodectest"
)

const comfyPrompt = `{"3": {"class_type": "KSampler", "inputs": {"seed": 42}}}`

func run(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()
	flagForce, flagPrompt, flagIndent, flagOutput = false, false, false, "-"
	var stdout bytes.Buffer
	cmd.RootCmd.SetIn(bytes.NewReader(stdin))
	cmd.RootCmd.SetOut(&stdout)
	cmd.RootCmd.SetArgs(append([]string{"workflow", "-"}, args...))
	err := cmd.RootCmd.Execute()
	return stdout.String(), err
}

func TestWorkflow(t *testing.T) {
	image := imagecodectest.PNG(
		imagecodectest.TEXt("prompt", comfyPrompt),
		imagecodectest.ITXt("workflow", `{"nodes": [1, 2]}`, true),
	)

	out, err := run(t, image)
	require.NoError(t, err)
	assert.Equal(t, `{"nodes": [1, 2]}`+"\n", out)

	out, err = run(t, image, "--prompt")
	require.NoError(t, err)
	assert.Equal(t, comfyPrompt+"\n", out)

	out, err = run(t, image, "--indent")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"nodes\": [\n    1,\n    2\n  ]\n}\n", out)
}

func TestWorkflow_NotJSON(t *testing.T) {
	image := imagecodectest.PNG(
		imagecodectest.TEXt("prompt", comfyPrompt),
		imagecodectest.TEXt("workflow", "not json {"),
	)
	out, err := run(t, image, "--indent")
	require.NoError(t, err)
	assert.Equal(t, "not json {\n", out)
}

func TestWorkflow_Errors(t *testing.T) {
	_, err := run(t, imagecodectest.PNG(imagecodectest.TEXt("prompt", comfyPrompt)))
	assert.ErrorContains(t, err, "no workflow")

	_, err = run(t, imagecodectest.PNG(imagecodectest.TEXt("parameters", "a\nSteps: 1")))
	assert.ErrorContains(t, err, "not a ComfyUI image")

	_, err = run(t, imagecodectest.PNG())
	assert.ErrorIs(t, err, aimeta.ErrNoMetadata)
}
