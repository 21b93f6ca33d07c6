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

package effector

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackNotifier posts a message to a channel; satisfied by
// *slack.Client in production and a fake in tests.
type SlackNotifier interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifyingEffector wraps another Effector and, for notify_operator
// actions only, additionally posts the alert detail to an operator Slack
// channel. Every other action kind is delegated unchanged: this is the
// only action kind in this reference system that reaches an external
// service beyond the pluggable cloud effector interface.
type SlackNotifyingEffector struct {
	Next    Effector
	Slack   SlackNotifier
	Channel string
}

// NewSlackNotifyingEffector wraps next with Slack notification for
// notify_operator actions, posting to channel via token.
func NewSlackNotifyingEffector(next Effector, token, channel string) *SlackNotifyingEffector {
	return &SlackNotifyingEffector{
		Next:    next,
		Slack:   slack.New(token),
		Channel: channel,
	}
}

const kindNotifyOperator = "notify_operator"

func (s *SlackNotifyingEffector) Apply(ctx context.Context, kind, target string, descriptor map[string]any) (bool, string, RollbackDescriptor, error) {
	ok, result, rollback, err := s.Next.Apply(ctx, kind, target, descriptor)
	if kind == kindNotifyOperator && ok && s.Slack != nil {
		msg := fmt.Sprintf(":rotating_light: alert %s requires operator attention", target)
		if _, _, postErr := s.Slack.PostMessageContext(ctx, s.Channel, slack.MsgOptionText(msg, false)); postErr != nil {
			return ok, result, rollback, MarkTransient(postErr)
		}
	}
	return ok, result, rollback, err
}

func (s *SlackNotifyingEffector) Reverse(ctx context.Context, kind, target string, rollback RollbackDescriptor) (bool, string, error) {
	return s.Next.Reverse(ctx, kind, target, rollback)
}
