package catalog

// Localization is the fixed locale context sent with every request.
type Localization struct {
	Language string `json:"language" yaml:"language"`
	Country  string `json:"country" yaml:"country"`
	Currency string `json:"currency" yaml:"currency"`
}

// DefaultLocalization is used when none is configured.
var DefaultLocalization = Localization{Language: "en", Country: "US", Currency: "USD"}

// User is the subscription context sent with every request.
type User struct {
	Subscription string `json:"subscription" yaml:"subscription"`
	Location     string `json:"location,omitempty" yaml:"location"`
}

type meta struct {
	User User `json:"user"`
}

// envelope is the request body every discovery service accepts.
type envelope struct {
	Context      string       `json:"context"`
	Image        string       `json:"image,omitempty"`
	Localization Localization `json:"localization"`
	Meta         meta         `json:"meta"`
}
