package dto

// UserSignupRequest creates an account. The server answers with a generated
// login key; a password is optional and, once set, required at login.
type UserSignupRequest struct {
	Name     string `json:"name" form:"name" binding:"required,min=1,max=64"`
	Password string `json:"password" form:"password" binding:"omitempty,min=6,max=64"`
}

// UserLoginRequest exchanges a stored login key for a fresh session.
type UserLoginRequest struct {
	LoginKey string `json:"loginKey" form:"loginKey" binding:"required,uuid"`
	Password string `json:"password" form:"password" binding:"omitempty,max=64"`
}

// UserAuthResponse carries the account identity and the opaque session
// token. LoginKey is only filled on signup.
type UserAuthResponse struct {
	UID       int64  `json:"uid"`
	Name      string `json:"name"`
	LoginKey  string `json:"loginKey,omitempty"`
	Token     string `json:"token"`
	ExpiredAt string `json:"expiredAt"`
}
