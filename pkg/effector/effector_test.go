/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package effector_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelguard/sentinelguard/pkg/effector"
)

func TestMockEffectorAppliesAndReverses(t *testing.T) {
	eff := effector.NewMockEffector()

	ok, result, rollback, err := eff.Apply(context.Background(), "revoke_access", "user-42", map[string]any{"role": "admin"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, result, "revoke_access")
	assert.Equal(t, "user-42", rollback["target"])

	ok, result, err = eff.Reverse(context.Background(), "revoke_access", "user-42", rollback)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, result, "reversed")
}

func TestMockEffectorScriptedFailuresAreTransient(t *testing.T) {
	eff := effector.NewMockEffector()
	eff.FailuresBeforeSuccess["quarantine_instance|i-1"] = 2

	for i := 0; i < 2; i++ {
		ok, _, _, err := eff.Apply(context.Background(), "quarantine_instance", "i-1", nil)
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, effector.IsTransient(err))
	}

	ok, _, rollback, err := eff.Apply(context.Background(), "quarantine_instance", "i-1", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, rollback)
}

func TestIsTransientUnwrapsWrappedErrors(t *testing.T) {
	base := effector.MarkTransient(errors.New("boom"))
	wrapped := errors.New("context: " + base.Error())
	assert.True(t, effector.IsTransient(base))
	assert.True(t, effector.IsTransient(fmt.Errorf("context: %w", base)), "%w wrapping keeps the transient mark reachable")
	assert.False(t, effector.IsTransient(wrapped), "plain errors.New does not implement Unwrap")
	assert.False(t, effector.IsTransient(errors.New("permanent failure")))
}

type fakeSlackNotifier struct {
	posted  bool
	channel string
	err     error
}

func (f *fakeSlackNotifier) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.posted = true
	f.channel = channelID
	return "", "", f.err
}

func TestSlackNotifyingEffectorPostsOnlyForNotifyOperator(t *testing.T) {
	fake := &fakeSlackNotifier{}
	wrapped := &effector.SlackNotifyingEffector{
		Next:    effector.NewMockEffector(),
		Slack:   fake,
		Channel: "#security-alerts",
	}

	ok, _, _, err := wrapped.Apply(context.Background(), "revoke_access", "user-1", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, fake.posted, "revoke_access must not trigger a Slack post")

	ok, _, _, err = wrapped.Apply(context.Background(), "notify_operator", "alert-1", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, fake.posted)
	assert.Equal(t, "#security-alerts", fake.channel)
}

func TestSlackNotifyingEffectorSurfacesPostFailureAsTransient(t *testing.T) {
	fake := &fakeSlackNotifier{err: errors.New("slack unavailable")}
	wrapped := &effector.SlackNotifyingEffector{
		Next:    effector.NewMockEffector(),
		Slack:   fake,
		Channel: "#security-alerts",
	}

	_, _, _, err := wrapped.Apply(context.Background(), "notify_operator", "alert-1", nil)
	require.Error(t, err)
	assert.True(t, effector.IsTransient(err))
}
