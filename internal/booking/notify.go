package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// Email is a message for the notifier.  Link, when set, is the action
// the recipient is asked to take; transports may render it as a button
// or QR code.
type Email struct {
	To      string
	Subject string
	Body    string
	Link    string
}

// Notifier delivers email.  Delivery is best effort: callers log
// failures and carry on.
type Notifier interface {
	Send(ctx context.Context, e Email) error
}

// ConfirmLink builds the public confirmation URL for token.
func ConfirmLink(siteURL, token string) string {
	return strings.TrimRight(siteURL, "/") + "/v1/reservations/confirm/" + token
}

func greeting(u *model.User) string {
	if u.FirstName == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", u.FirstName)
}

func bookingEmail(u *model.User, r *model.Reservation, link string) Email {
	body := fmt.Sprintf("%s\n\nYour reservation for table %d on %s at %s (%d minutes) has been received.\n"+
		"Please confirm it using the link below. Unconfirmed reservations are cancelled automatically %d minutes before they start.\n\n%s\n",
		greeting(u), r.TableNumber, r.Date, r.Time, r.Duration, int(AutoCancelLead.Minutes()), link)
	return Email{To: u.Email, Subject: "Confirm your reservation", Body: body, Link: link}
}

func reminderEmail(u *model.User, r *model.Reservation, link string) Email {
	body := fmt.Sprintf("%s\n\nYour reservation for table %d on %s at %s starts in 1 hour.\n",
		greeting(u), r.TableNumber, r.Date, r.Time)
	e := Email{To: u.Email, Subject: "Reservation reminder", Body: body}
	if r.Status == model.ReservationPending {
		e.Body += "It is not confirmed yet. Confirm it now to keep your table:\n\n" + link + "\n"
		e.Link = link
	}
	return e
}

func autoCancelEmail(u *model.User, r *model.Reservation) Email {
	body := fmt.Sprintf("%s\n\nYour reservation for table %d on %s at %s was automatically cancelled because it was not confirmed.\n",
		greeting(u), r.TableNumber, r.Date, r.Time)
	return Email{To: u.Email, Subject: "Reservation cancelled", Body: body}
}
