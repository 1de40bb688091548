// Package secret looks up the service's secret settings in AWS SSM Parameter
// Store, or in the process environment when running without AWS.
package secret

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMClient is the subset of *ssm.Client used by SSMResolver.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMResolver reads SecureString parameters. Relative names such as
// "paseto-key" are looked up under prefix.
type SSMResolver struct {
	client SSMClient
	prefix string
}

func NewSSMResolver(client SSMClient, prefix string) *SSMResolver {
	return &SSMResolver{client: client, prefix: prefix}
}

// NewDefaultSSMResolver uses the default AWS credential chain.
func NewDefaultSSMResolver(ctx context.Context, prefix string) (*SSMResolver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSSMResolver(ssm.NewFromConfig(awsCfg), prefix), nil
}

func (r *SSMResolver) GetSecret(ctx context.Context, name string) (string, error) {
	param := r.parameterPath(name)

	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get parameter %q: %w", param, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("ssm parameter %q is empty", param)
	}
	return *out.Parameter.Value, nil
}

func (r *SSMResolver) parameterPath(name string) string {
	if strings.HasPrefix(name, "/") || r.prefix == "" {
		return name
	}
	return path.Join("/", r.prefix, name)
}

// envVars maps parameter names to the variables config.Load reads.
var envVars = map[string]string{
	"paseto-key":    "PASETO_KEY",
	"jwt-secret":    "JWT_SECRET",
	"smtp-pass":     "SMTP_PASS",
	"smtp-password": "SMTP_PASS",
}

// EnvResolver serves the same parameter names from the environment, so a
// deployment can switch SECRETS_BACKEND without renaming its parameters.
type EnvResolver struct{}

func NewEnvResolver() *EnvResolver {
	return &EnvResolver{}
}

func (r *EnvResolver) GetSecret(_ context.Context, name string) (string, error) {
	envName := envVarFor(name)
	val := os.Getenv(envName)
	if val == "" {
		return "", fmt.Errorf("environment variable %s for secret %q is not set", envName, name)
	}
	return val, nil
}

func envVarFor(name string) string {
	base := path.Base(name)
	if env, ok := envVars[base]; ok {
		return env
	}
	return strings.ToUpper(strings.ReplaceAll(base, "-", "_"))
}
