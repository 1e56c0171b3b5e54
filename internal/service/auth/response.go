package auth

import "github.com/nkiryanov/bookadmin/internal/models"

// The API has answered login in several shapes over time:
//
//	{"access_token": "...", "refresh_token": "..."}
//	{"access": "...", "refresh": "..."}
//	{"token": "...", "refresh": "...", "user": {...}}
//	{"tokens": {"access": "...", "refresh": "..."}, "user": {...}}
type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Access       string `json:"access"`
	Token        string `json:"token"`
	Refresh      string `json:"refresh"`
	Tokens       *struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
}

func (r loginResponse) credential() models.Credential {
	switch {
	case r.AccessToken != "":
		return models.Credential{Access: r.AccessToken, Refresh: r.RefreshToken}
	case r.Tokens != nil && r.Tokens.Access != "":
		return models.Credential{Access: r.Tokens.Access, Refresh: r.Tokens.Refresh}
	case r.Access != "":
		return models.Credential{Access: r.Access, Refresh: r.Refresh}
	default:
		return models.Credential{Access: r.Token, Refresh: r.Refresh}
	}
}

type registerResponse struct {
	Message string         `json:"message"`
	User    models.Profile `json:"user"`
}
