package functions

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"lambda-events/internal/logging"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

// CognitoOptions configure the user pool trigger.
type CognitoOptions struct {
	// AutoConfirmDomains lists email domains whose sign-ups are confirmed
	// without a verification code.
	AutoConfirmDomains []string
	// MaxAttempts bounds the custom challenges offered per sign-in. Defaults to 3.
	MaxAttempts int
	// CodeLength is the number of digits of a challenge code. Defaults to 6.
	CodeLength int
}

// NewCognitoTrigger returns a handler for user pool triggers implementing
// passwordless sign-in with a one-time code, domain based auto-confirmation
// and branded messages. Other trigger sources are returned unchanged.
func NewCognitoTrigger(opts CognitoOptions, logger logrus.FieldLogger) lambda.Handler[events.CognitoUserPoolEvent, events.CognitoUserPoolEvent] {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = 6
	}

	return func(ctx context.Context, event events.CognitoUserPoolEvent, lc *lambda.Context, _ lambda.Callback[events.CognitoUserPoolEvent]) (events.CognitoUserPoolEvent, error) {
		log := logging.ForInvocation(logger, lc).WithFields(logrus.Fields{
			"trigger_source": event.TriggerSource,
			"user_pool_id":   event.UserPoolID,
		})

		switch event.TriggerSource {
		case events.TriggerPreSignUpSignUp, events.TriggerPreSignUpAdminCreateUser:
			event.Response.AutoConfirmUser = opts.autoConfirm(event.Request.UserAttributes["email"])
		case events.TriggerDefineAuthChallengeAuthentication:
			defineAuthChallenge(&event, opts.MaxAttempts)
		case events.TriggerCreateAuthChallengeAuthentication:
			if err := createAuthChallenge(&event, opts.CodeLength); err != nil {
				return event, err
			}
		case events.TriggerVerifyAuthChallengeResponseAuthentication:
			expected := event.Request.PrivateChallengeParameters["answer"]
			given := event.Request.ChallengeAnswer["answer"]
			event.Response.AnswerCorrect = expected != "" &&
				subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
		case events.TriggerCustomMessageSignUp, events.TriggerCustomMessageResendCode,
			events.TriggerCustomMessageForgotPassword, events.TriggerCustomMessageAdminCreateUser:
			customMessage(&event)
		default:
			log.Debug("Trigger passed through")
			return event, nil
		}

		log.Info("Trigger handled")
		return event, nil
	}
}

func (o CognitoOptions) autoConfirm(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, d := range o.AutoConfirmDomains {
		if strings.ToLower(d) == domain {
			return true
		}
	}
	return false
}

func defineAuthChallenge(event *events.CognitoUserPoolEvent, maxAttempts int) {
	session := event.Request.Session
	resp := &event.Response

	if len(session) == 0 {
		resp.ChallengeName = string(events.ChallengeCustom)
		return
	}

	last := session[len(session)-1]
	switch {
	case last.ChallengeName == events.ChallengeCustom && last.ChallengeResult:
		resp.IssueTokens = true
	case len(session) >= maxAttempts:
		resp.FailAuthentication = true
	default:
		resp.ChallengeName = string(events.ChallengeCustom)
	}
}

func createAuthChallenge(event *events.CognitoUserPoolEvent, codeLength int) error {
	if event.Request.ChallengeName != string(events.ChallengeCustom) {
		return nil
	}

	code, err := randomString(digits, codeLength)
	if err != nil {
		return err
	}

	event.Response.PublicChallengeParameters = map[string]string{
		"email": event.Request.UserAttributes["email"],
	}
	event.Response.PrivateChallengeParameters = map[string]string{"answer": code}
	event.Response.ChallengeMetaData = fmt.Sprintf("CODE-%d", len(event.Request.Session)+1)
	return nil
}

func customMessage(event *events.CognitoUserPoolEvent) {
	code := event.Request.CodeParameter
	resp := &event.Response

	switch event.TriggerSource {
	case events.TriggerCustomMessageForgotPassword:
		resp.EmailSubject = "Reset your password"
		resp.EmailMessage = "Use " + code + " to reset your password."
	case events.TriggerCustomMessageAdminCreateUser:
		resp.EmailSubject = "Your account is ready"
		resp.EmailMessage = "Sign in as " + event.Request.UsernameParameter + " with the temporary password " + code + "."
	default:
		resp.EmailSubject = "Verify your email"
		resp.EmailMessage = "Your verification code is " + code + "."
	}
	resp.SMSMessage = "Your code is " + code
}
