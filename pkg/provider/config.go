package provider

// Config parameterizes the shared scraping logic per institution of the
// family. Both known members speak the same protocol behind the same proxy
// handler path and differ only in host and company code.
type Config struct {
	Name        string
	BaseURL     string
	ServicesURL string
	CompanyCode string
}

func Isracard() Config {
	return Config{
		Name:        "isracard",
		BaseURL:     "https://digital.isracard.co.il",
		ServicesURL: "https://digital.isracard.co.il/services/ProxyRequestHandler.ashx",
		CompanyCode: "11",
	}
}

func Amex() Config {
	return Config{
		Name:        "amex",
		BaseURL:     "https://he.americanexpress.co.il",
		ServicesURL: "https://he.americanexpress.co.il/services/ProxyRequestHandler.ashx",
		CompanyCode: "29",
	}
}
