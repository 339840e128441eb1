package churn

import (
	"sort"
	"strings"
	"unicode"
)

// ColumnMapping names the row column that carries each logical field. An
// empty entry means the field is absent and its factor is skipped.
type ColumnMapping struct {
	CustomerID     string `json:"customer_id,omitempty"`
	CustomerName   string `json:"customer_name,omitempty"`
	DaysInactive   string `json:"days_inactive,omitempty"`
	LastLogin      string `json:"last_login,omitempty"`
	UsageChange    string `json:"usage_change,omitempty"`
	UsageCurrent   string `json:"usage_current,omitempty"`
	UsagePrevious  string `json:"usage_previous,omitempty"`
	SupportTickets string `json:"support_tickets,omitempty"`
	HealthScore    string `json:"health_score,omitempty"`
	NPSScore       string `json:"nps_score,omitempty"`
	LoginCount     string `json:"login_count,omitempty"`
}

// IsZero reports whether no column is mapped.
func (m ColumnMapping) IsZero() bool {
	return m == ColumnMapping{}
}

var synonyms = map[string][]string{
	"customer_id":     {"customerid", "accountid", "id", "customer", "account"},
	"customer_name":   {"customername", "accountname", "name", "company", "companyname"},
	"days_inactive":   {"daysinactive", "inactivedays", "dayssincelastlogin", "dayssincelogin", "daysinactivity"},
	"last_login":      {"lastlogin", "lastloginat", "lastlogindate", "lastactive", "lastseen", "lastactivity"},
	"usage_change":    {"usagechange", "usagetrend", "usagechangepct", "usagedelta", "usagechangepercent"},
	"usage_current":   {"usagecurrent", "currentusage", "usage", "usagecount"},
	"usage_previous":  {"usageprevious", "previoususage", "priorusage", "lastperiodusage"},
	"support_tickets": {"supporttickets", "tickets", "ticketcount", "opentickets", "supportticketcount"},
	"health_score":    {"healthscore", "health"},
	"nps_score":       {"npsscore", "nps"},
	"login_count":     {"logincount", "logins", "logins30d", "logincount30d", "monthlylogins"},
}

// DetectMapping guesses a mapping from header names. Earlier synonyms win
// when several headers match the same field.
func DetectMapping(headers []string) ColumnMapping {
	byNorm := make(map[string]string, len(headers))
	for _, h := range headers {
		n := normalizeHeader(h)
		if _, taken := byNorm[n]; !taken && n != "" {
			byNorm[n] = h
		}
	}
	pick := func(field string) string {
		for _, candidate := range synonyms[field] {
			if h, ok := byNorm[candidate]; ok {
				return h
			}
		}
		return ""
	}
	return ColumnMapping{
		CustomerID:     pick("customer_id"),
		CustomerName:   pick("customer_name"),
		DaysInactive:   pick("days_inactive"),
		LastLogin:      pick("last_login"),
		UsageChange:    pick("usage_change"),
		UsageCurrent:   pick("usage_current"),
		UsagePrevious:  pick("usage_previous"),
		SupportTickets: pick("support_tickets"),
		HealthScore:    pick("health_score"),
		NPSScore:       pick("nps_score"),
		LoginCount:     pick("login_count"),
	}
}

// MappingForRows detects a mapping from the union of the rows' keys.
func MappingForRows(rows []Row) ColumnMapping {
	seen := map[string]struct{}{}
	headers := []string{}
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)
	return DetectMapping(headers)
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
