package lambda

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// CognitoIdentity is the Amazon Cognito identity that authorized the request,
// present only for invocations made through the mobile SDKs.
type CognitoIdentity struct {
	CognitoIdentityID     string `json:"cognitoIdentityId"`
	CognitoIdentityPoolID string `json:"cognitoIdentityPoolId"`
}

// ClientContextClient describes the calling mobile application.
type ClientContextClient struct {
	InstallationID string `json:"installationId"`
	AppTitle       string `json:"appTitle"`
	AppVersionName string `json:"appVersionName"`
	AppVersionCode string `json:"appVersionCode"`
	AppPackageName string `json:"appPackageName"`
}

// ClientContextEnv describes the device of the calling mobile application.
type ClientContextEnv struct {
	PlatformVersion string `json:"platformVersion"`
	Platform        string `json:"platform"`
	Make            string `json:"make"`
	Model           string `json:"model"`
	Locale          string `json:"locale"`
}

// ClientContext is the client context sent by the mobile SDKs. Custom holds
// arbitrary values set by the application.
type ClientContext struct {
	Client ClientContextClient `json:"client"`
	Custom json.RawMessage     `json:"Custom,omitempty"`
	Env    ClientContextEnv    `json:"env"`
}

// Context is the execution metadata the runtime supplies with each invocation.
// Handlers read it; they never build one themselves outside of tests.
type Context struct {
	// CallbackWaitsForEmptyEventLoop makes Invoke wait for the handler and all
	// work started with Go to finish after the callback fires.
	CallbackWaitsForEmptyEventLoop bool             `json:"callbackWaitsForEmptyEventLoop"`
	FunctionName                   string           `json:"functionName"`
	FunctionVersion                string           `json:"functionVersion"`
	InvokedFunctionArn             string           `json:"invokedFunctionArn"`
	MemoryLimitInMB                int              `json:"memoryLimitInMB"`
	AwsRequestID                   string           `json:"awsRequestId"`
	LogGroupName                   string           `json:"logGroupName"`
	LogStreamName                  string           `json:"logStreamName"`
	Identity                       *CognitoIdentity `json:"identity,omitempty"`
	ClientContext                  *ClientContext   `json:"clientContext,omitempty"`

	// Deadline is when the invocation times out.
	Deadline time.Time `json:"-"`

	mu  sync.Mutex
	inv *invocation
}

// RemainingTime returns the time left before Deadline, never negative. A
// Context without a deadline reports zero.
func (c *Context) RemainingTime() time.Duration {
	if c.Deadline.IsZero() {
		return 0
	}
	if d := time.Until(c.Deadline); d > 0 {
		return d
	}
	return 0
}

// GetRemainingTimeInMillis returns RemainingTime in milliseconds.
func (c *Context) GetRemainingTimeInMillis() int64 {
	return c.RemainingTime().Milliseconds()
}

// Go runs fn in a new goroutine and tracks it as outstanding work of the
// invocation. A panic in fn completes the invocation with ErrHandlerPanic.
func (c *Context) Go(fn func()) {
	inv := c.invocation()
	if inv != nil {
		inv.tracked.Store(true)
		inv.work.Add(1)
	}
	go func() {
		defer func() {
			if inv != nil {
				inv.work.Done()
			}
		}()
		defer func() {
			if inv == nil {
				return
			}
			if r := recover(); r != nil {
				inv.complete(CompletedByPanic, nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r))
			}
		}()
		fn()
	}()
}

// Done completes the invocation: with err when it is non-nil, otherwise
// with result.
func (c *Context) Done(err error, result any) {
	c.complete(CompletedByContext, result, err)
}

// Succeed completes the invocation with result.
func (c *Context) Succeed(result any) {
	c.complete(CompletedByContext, result, nil)
}

// SucceedMessage is the two-argument form of Succeed. The message is
// discarded and object becomes the result.
func (c *Context) SucceedMessage(_ string, object any) {
	c.complete(CompletedByContext, object, nil)
}

// Fail completes the invocation with err.
func (c *Context) Fail(err error) {
	if err == nil {
		err = errors.New("handler failed")
	}
	c.complete(CompletedByContext, nil, err)
}

// FailMessage completes the invocation with an error carrying message.
func (c *Context) FailMessage(message string) {
	c.Fail(errors.New(message))
}

func (c *Context) complete(source CompletionSource, result any, err error) {
	if inv := c.invocation(); inv != nil {
		inv.complete(source, result, err)
	}
}

func (c *Context) attach(inv *invocation) {
	c.mu.Lock()
	c.inv = inv
	c.mu.Unlock()
}

func (c *Context) invocation() *invocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inv
}
