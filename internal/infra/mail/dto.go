package mail

type ReportReadyData struct {
	Name      string
	Company   string
	ReportURL string
}

type FollowUpAlertData struct {
	LeadID   string
	Name     string
	Email    string
	Company  string
	Reason   string
	Attempts int
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string

	From       string
	SalesInbox string
	SiteURL    string
}
