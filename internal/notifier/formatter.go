package notifier

import "fmt"

// FormatSubject returns the fixed subject line for the notification kind.
func FormatSubject(n Notification) string {
	if n.Kind == KindRecovered {
		return SubjectRecovered
	}
	return SubjectDown
}

// FormatBody renders the plain text message body.
func FormatBody(n Notification) string {
	if n.Kind == KindRecovered {
		return fmt.Sprintf("The website %s is back up. Status: %s", n.Site.URL, n.Site.Status.Message)
	}
	return fmt.Sprintf("The website %s is down. Status: %s", n.Site.URL, n.Site.Status.Message)
}
