package functions

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"lambda-events/pkg/events"
)

const (
	randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digits         = "0123456789"
)

// RandomStringProperties are the properties of a Custom::RandomString resource.
type RandomStringProperties struct {
	Length int    `json:"Length,string"`
	Prefix string `json:"Prefix"`
}

// RandomStringProvider implements Custom::RandomString: a random value exposed
// through Fn::GetAtt Value. Changing the properties replaces the resource.
type RandomStringProvider struct{}

func (RandomStringProvider) Create(ctx context.Context, event *events.CustomResourceCreateEvent) (string, map[string]any, error) {
	return generate(event.ResourceProperties)
}

func (RandomStringProvider) Update(ctx context.Context, event *events.CustomResourceUpdateEvent) (string, map[string]any, error) {
	var current, previous RandomStringProperties
	if err := event.ResourceProperties.Decode(&current); err != nil {
		return "", nil, err
	}
	if err := events.ResourceProperties(event.OldResourceProperties).Decode(&previous); err != nil {
		return "", nil, err
	}
	if current == previous {
		return event.PhysicalResourceID, nil, nil
	}
	return generate(event.ResourceProperties)
}

func (RandomStringProvider) Delete(ctx context.Context, event *events.CustomResourceDeleteEvent) error {
	return nil
}

func generate(props events.ResourceProperties) (string, map[string]any, error) {
	var p RandomStringProperties
	if err := props.Decode(&p); err != nil {
		return "", nil, err
	}
	if p.Length == 0 {
		p.Length = 16
	}
	if p.Length < 1 || p.Length > 512 {
		return "", nil, fmt.Errorf("Length must be between 1 and 512, got %d", p.Length)
	}

	value, err := randomString(randomAlphabet, p.Length)
	if err != nil {
		return "", nil, err
	}
	return "random-" + uuid.NewString(), map[string]any{"Value": p.Prefix + value}, nil
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random value: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
