package events

import "encoding/json"

// CognitoTriggerSource names the user pool flow that invoked the trigger.
type CognitoTriggerSource string

const (
	TriggerPreSignUpSignUp                           CognitoTriggerSource = "PreSignUp_SignUp"
	TriggerPostConfirmationConfirmSignUp             CognitoTriggerSource = "PostConfirmation_ConfirmSignUp"
	TriggerPreAuthenticationAuthentication           CognitoTriggerSource = "PreAuthentication_Authentication"
	TriggerPostAuthenticationAuthentication          CognitoTriggerSource = "PostAuthentication_Authentication"
	TriggerCustomMessageSignUp                       CognitoTriggerSource = "CustomMessage_SignUp"
	TriggerCustomMessageAdminCreateUser              CognitoTriggerSource = "CustomMessage_AdminCreateUser"
	TriggerCustomMessageResendCode                   CognitoTriggerSource = "CustomMessage_ResendCode"
	TriggerCustomMessageForgotPassword               CognitoTriggerSource = "CustomMessage_ForgotPassword"
	TriggerCustomMessageUpdateUserAttribute          CognitoTriggerSource = "CustomMessage_UpdateUserAttribute"
	TriggerCustomMessageVerifyUserAttribute          CognitoTriggerSource = "CustomMessage_VerifyUserAttribute"
	TriggerCustomMessageAuthentication               CognitoTriggerSource = "CustomMessage_Authentication"
	TriggerDefineAuthChallengeAuthentication         CognitoTriggerSource = "DefineAuthChallenge_Authentication"
	TriggerCreateAuthChallengeAuthentication         CognitoTriggerSource = "CreateAuthChallenge_Authentication"
	TriggerVerifyAuthChallengeResponseAuthentication CognitoTriggerSource = "VerifyAuthChallengeResponse_Authentication"
	TriggerPreSignUpAdminCreateUser                  CognitoTriggerSource = "PreSignUp_AdminCreateUser"
	TriggerPostConfirmationConfirmForgotPassword     CognitoTriggerSource = "PostConfirmation_ConfirmForgotPassword"
	TriggerTokenGenerationHostedAuth                 CognitoTriggerSource = "TokenGeneration_HostedAuth"
	TriggerTokenGenerationAuthentication             CognitoTriggerSource = "TokenGeneration_Authentication"
	TriggerTokenGenerationNewPasswordChallenge       CognitoTriggerSource = "TokenGeneration_NewPasswordChallenge"
	TriggerTokenGenerationAuthenticateDevice         CognitoTriggerSource = "TokenGeneration_AuthenticateDevice"
	TriggerTokenGenerationRefreshTokens              CognitoTriggerSource = "TokenGeneration_RefreshTokens"
)

var cognitoTriggerSources = map[CognitoTriggerSource]struct{}{
	TriggerPreSignUpSignUp:                           {},
	TriggerPostConfirmationConfirmSignUp:             {},
	TriggerPreAuthenticationAuthentication:           {},
	TriggerPostAuthenticationAuthentication:          {},
	TriggerCustomMessageSignUp:                       {},
	TriggerCustomMessageAdminCreateUser:              {},
	TriggerCustomMessageResendCode:                   {},
	TriggerCustomMessageForgotPassword:               {},
	TriggerCustomMessageUpdateUserAttribute:          {},
	TriggerCustomMessageVerifyUserAttribute:          {},
	TriggerCustomMessageAuthentication:               {},
	TriggerDefineAuthChallengeAuthentication:         {},
	TriggerCreateAuthChallengeAuthentication:         {},
	TriggerVerifyAuthChallengeResponseAuthentication: {},
	TriggerPreSignUpAdminCreateUser:                  {},
	TriggerPostConfirmationConfirmForgotPassword:     {},
	TriggerTokenGenerationHostedAuth:                 {},
	TriggerTokenGenerationAuthentication:             {},
	TriggerTokenGenerationNewPasswordChallenge:       {},
	TriggerTokenGenerationAuthenticateDevice:         {},
	TriggerTokenGenerationRefreshTokens:              {},
}

func (s CognitoTriggerSource) Valid() bool {
	_, ok := cognitoTriggerSources[s]
	return ok
}

func (s *CognitoTriggerSource) UnmarshalText(text []byte) error {
	v := CognitoTriggerSource(text)
	if !v.Valid() {
		return unknownLiteral("triggerSource", text)
	}
	*s = v
	return nil
}

// CognitoChallengeName names a challenge in a custom authentication session.
type CognitoChallengeName string

const (
	ChallengeCustom                 CognitoChallengeName = "CUSTOM_CHALLENGE"
	ChallengePasswordVerifier       CognitoChallengeName = "PASSWORD_VERIFIER"
	ChallengeSMSMFA                 CognitoChallengeName = "SMS_MFA"
	ChallengeDeviceSRPAuth          CognitoChallengeName = "DEVICE_SRP_AUTH"
	ChallengeDevicePasswordVerifier CognitoChallengeName = "DEVICE_PASSWORD_VERIFIER"
	ChallengeAdminNoSRPAuth         CognitoChallengeName = "ADMIN_NO_SRP_AUTH"
)

func (c CognitoChallengeName) Valid() bool {
	switch c {
	case ChallengeCustom, ChallengePasswordVerifier, ChallengeSMSMFA,
		ChallengeDeviceSRPAuth, ChallengeDevicePasswordVerifier, ChallengeAdminNoSRPAuth:
		return true
	}
	return false
}

func (c *CognitoChallengeName) UnmarshalText(text []byte) error {
	v := CognitoChallengeName(text)
	if !v.Valid() {
		return unknownLiteral("challengeName", text)
	}
	*c = v
	return nil
}

// CognitoCallerContext identifies the SDK and app client of the request.
type CognitoCallerContext struct {
	AWSSDKVersion string `json:"awsSdkVersion"`
	ClientID      string `json:"clientId"`
}

// CognitoChallengeResult is one completed step of a custom auth session.
type CognitoChallengeResult struct {
	ChallengeName     CognitoChallengeName `json:"challengeName" validate:"required,awsenum"`
	ChallengeResult   bool                 `json:"challengeResult"`
	ChallengeMetaData string               `json:"challengeMetaData,omitempty"`
}

// CognitoUserPoolRequest is the trigger-specific input.
type CognitoUserPoolRequest struct {
	UserAttributes             map[string]string        `json:"userAttributes"`
	ValidationData             map[string]string        `json:"validationData,omitempty"`
	CodeParameter              string                   `json:"codeParameter,omitempty"`
	UsernameParameter          string                   `json:"usernameParameter,omitempty"`
	NewDeviceUsed              bool                     `json:"newDeviceUsed,omitempty"`
	Session                    []CognitoChallengeResult `json:"session,omitempty" validate:"dive"`
	ChallengeName              string                   `json:"challengeName,omitempty"`
	PrivateChallengeParameters map[string]string        `json:"privateChallengeParameters,omitempty"`
	ChallengeAnswer            map[string]string        `json:"challengeAnswer,omitempty"`
}

// CognitoUserPoolResponse is the trigger-specific output the handler fills in.
type CognitoUserPoolResponse struct {
	AutoConfirmUser            bool              `json:"autoConfirmUser,omitempty"`
	SMSMessage                 string            `json:"smsMessage,omitempty"`
	EmailMessage               string            `json:"emailMessage,omitempty"`
	EmailSubject               string            `json:"emailSubject,omitempty"`
	ChallengeName              string            `json:"challengeName,omitempty"`
	IssueTokens                bool              `json:"issueTokens,omitempty"`
	FailAuthentication         bool              `json:"failAuthentication,omitempty"`
	PublicChallengeParameters  map[string]string `json:"publicChallengeParameters,omitempty"`
	PrivateChallengeParameters map[string]string `json:"privateChallengeParameters,omitempty"`
	ChallengeMetaData          string            `json:"challengeMetaData,omitempty"`
	AnswerCorrect              bool              `json:"answerCorrect,omitempty"`
}

// CognitoUserPoolEvent is the common envelope of every user pool trigger. The
// same document is returned with Response filled in.
type CognitoUserPoolEvent struct {
	// Version is a number; user pools have been observed sending it quoted.
	Version       json.Number             `json:"version"`
	TriggerSource CognitoTriggerSource    `json:"triggerSource" validate:"required,awsenum"`
	Region        string                  `json:"region" validate:"required"`
	UserPoolID    string                  `json:"userPoolId" validate:"required"`
	UserName      string                  `json:"userName,omitempty"`
	CallerContext CognitoCallerContext    `json:"callerContext"`
	Request       CognitoUserPoolRequest  `json:"request"`
	Response      CognitoUserPoolResponse `json:"response"`
}
