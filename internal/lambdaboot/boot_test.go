package lambdaboot

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	values map[string]string
	calls  []string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(in.Name)
	f.calls = append(f.calls, name)
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("expected decryption")
	}
	v, ok := f.values[name]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(v)}}, nil
}

func TestLoadSecret(t *testing.T) {
	client := &fakeSSM{values: map[string]string{"/pitch/gemini": "k-123", "/pitch/empty": ""}}

	v, err := LoadSecret(context.Background(), client, "/pitch/gemini")
	require.NoError(t, err)
	assert.Equal(t, "k-123", v)

	_, err = LoadSecret(context.Background(), client, "/pitch/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/pitch/missing")

	_, err = LoadSecret(context.Background(), client, "/pitch/empty")
	require.Error(t, err)
}

func TestResolveSecret(t *testing.T) {
	client := &fakeSSM{values: map[string]string{"/p": "from-ssm"}}
	ctx := context.Background()

	v, err := ResolveSecret(ctx, client, "from-env", "/p")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
	assert.Empty(t, client.calls)

	v, err = ResolveSecret(ctx, client, "", "/p")
	require.NoError(t, err)
	assert.Equal(t, "from-ssm", v)

	v, err = ResolveSecret(ctx, client, "", "")
	require.NoError(t, err)
	assert.Empty(t, v)
}
