package notifier

const (
	SubjectDown      = "Website Down Notification"
	SubjectRecovered = "Website Recovered Notification"
)
