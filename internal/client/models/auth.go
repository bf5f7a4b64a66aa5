package models

// LoginData is submitted form-encoded to POST /auth/login.
type LoginData struct {
	Username string
	Password string
}

// String keeps credentials out of logs and error messages.
func (d LoginData) String() string {
	return "LoginData{Username:" + d.Username + " Password:[redacted]}"
}

// RegisterData is submitted as JSON to POST /auth/register.
type RegisterData struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d RegisterData) String() string {
	return "RegisterData{Email:" + d.Email + " Username:" + d.Username + " Password:[redacted]}"
}

// Credentials returns the login that follows a successful registration.
func (d RegisterData) Credentials() LoginData {
	return LoginData{Username: d.Username, Password: d.Password}
}

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserUpdate is sent as JSON to PUT /auth/profile. Empty fields are left
// unchanged by the API.
type UserUpdate struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Email == "" && u.Username == "" && u.Password == ""
}
