package provider

import (
	"context"
	"fmt"
)

// LoginStatus is the typed terminal outcome of the handshake. Credential
// problems are outcomes, not errors.
type LoginStatus string

const (
	LoginSuccess            LoginStatus = "success"
	LoginChangePassword     LoginStatus = "changePassword"
	LoginInvalidCredentials LoginStatus = "invalidCredentials"
	LoginUnknownError       LoginStatus = "unknownError"
)

// Credentials for the institution family: national id, the card's last
// digits, and the web password.
type Credentials struct {
	ID         string
	CardSuffix string
	Password   string
}

// Progress stages reported to the notifier, one per terminal state plus the
// initial attempt.
type Progress string

const (
	ProgressLoggingIn      Progress = "loggingIn"
	ProgressLoginSuccess   Progress = "loginSuccess"
	ProgressLoginFailed    Progress = "loginFailed"
	ProgressChangePassword Progress = "changePassword"
)

// Notifier receives progress stages. Fire-and-forget; the pipeline never
// consumes a return value.
type Notifier func(Progress)

// loginState enumerates the handshake's finite-state machine. The nested
// response conditionals live in two pure transition functions so the machine
// is testable without any transport.
type loginState int

const (
	stateStart loginState = iota
	stateNavigated
	stateValidating
	stateLoggingIn
	stateSuccess
	stateChangePassword
	stateInvalidCredentials
	stateUnknownError
)

const (
	fixedCountryCode = "212"
	fixedIDType      = "1"
	fixedCheckLevel  = "1"

	returnCodeProceed        = "1"
	returnCodeChangePassword = "4"

	logonStatusSuccess        = "1"
	logonStatusChangePassword = "3"
)

// nextAfterValidation maps the identity-validation response to the next
// state, carrying the server-issued username needed by the logon request.
func nextAfterValidation(rep *validateReply) (loginState, string) {
	if rep == nil || !rep.Header.ok() || rep.ValidateIdDataBean == nil {
		return stateUnknownError, ""
	}
	switch rep.ValidateIdDataBean.ReturnCode {
	case returnCodeProceed:
		return stateLoggingIn, rep.ValidateIdDataBean.UserName
	case returnCodeChangePassword:
		return stateChangePassword, ""
	default:
		return stateInvalidCredentials, ""
	}
}

// nextAfterLogon maps the logon response to a terminal state. A missing
// response is a credential rejection, not an unknown error: the institution
// drops the body on bad passwords.
func nextAfterLogon(rep *logonReply) loginState {
	if rep == nil {
		return stateInvalidCredentials
	}
	switch rep.Status {
	case logonStatusSuccess:
		return stateSuccess
	case logonStatusChangePassword:
		return stateChangePassword
	default:
		return stateInvalidCredentials
	}
}

func statusOf(s loginState) LoginStatus {
	switch s {
	case stateSuccess:
		return LoginSuccess
	case stateChangePassword:
		return LoginChangePassword
	case stateInvalidCredentials:
		return LoginInvalidCredentials
	default:
		return LoginUnknownError
	}
}

// Login drives the handshake to a terminal state. It must complete before
// Transactions may run; the shared session cookies it establishes are the
// only login artifact kept.
func (p *CardProvider) Login(ctx context.Context, creds Credentials) (LoginStatus, error) {
	p.notify(ProgressLoggingIn)

	// Start -> Navigated: warm up the session against the login page.
	if err := p.client.GetJSON(ctx, p.cfg.BaseURL, nil); err != nil {
		p.emitTerminal(stateUnknownError)
		return LoginUnknownError, fmt.Errorf("navigate: %w", err)
	}

	// Navigated -> Validating
	validateURL := fmt.Sprintf("%s?reqName=ValidateIdData", p.cfg.ServicesURL)
	validateBody := map[string]string{
		"id":          creds.ID,
		"cardSuffix":  creds.CardSuffix,
		"countryCode": fixedCountryCode,
		"idType":      fixedIDType,
		"checkLevel":  fixedCheckLevel,
		"companyCode": p.cfg.CompanyCode,
	}
	validation := &validateReply{}
	if err := p.client.PostJSON(ctx, validateURL, validateBody, validation); err != nil {
		p.emitTerminal(stateUnknownError)
		return LoginUnknownError, fmt.Errorf("validate id: %w", err)
	}

	state, userName := nextAfterValidation(validation)
	if state != stateLoggingIn {
		p.emitTerminal(state)
		return statusOf(state), nil
	}

	// LoggingIn -> terminal
	logonURL := fmt.Sprintf("%s?reqName=performLogonI", p.cfg.ServicesURL)
	logonBody := map[string]string{
		"KodMishtamesh": userName,
		"MisparZihuy":   creds.ID,
		"Sisma":         creds.Password,
		"cardSuffix":    creds.CardSuffix,
		"countryCode":   fixedCountryCode,
		"idType":        fixedIDType,
	}
	logon := &logonReply{}
	if err := p.client.PostJSON(ctx, logonURL, logonBody, logon); err != nil {
		p.log.Warn().Err(err).Msg("logon request failed")
		logon = nil
	}

	state = nextAfterLogon(logon)
	p.emitTerminal(state)
	if state == stateSuccess {
		p.loggedIn = true
	}
	return statusOf(state), nil
}

// emitTerminal fires the single progress notification owed for a terminal
// state.
func (p *CardProvider) emitTerminal(s loginState) {
	switch s {
	case stateSuccess:
		p.notify(ProgressLoginSuccess)
	case stateChangePassword:
		p.notify(ProgressChangePassword)
	default:
		p.notify(ProgressLoginFailed)
	}
}
