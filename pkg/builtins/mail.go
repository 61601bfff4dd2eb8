package builtins

import (
	"ebscript/pkg/object"

	"gopkg.in/gomail.v2"
)

func mailCategory() *category {
	c := newCategory("mail")

	// send(to, subject, body[, html, from]) delivers through the configured
	// SMTP server. An html body replaces the plain one.
	c.def("send", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		cfg := ctx.Mail
		if cfg.Host == "" || cfg.Port == 0 {
			return nil, object.Raise(object.ValidationError, "mail is not configured: set SMTP_HOST and SMTP_PORT")
		}
		from := optStr(a, 4, cfg.From)
		if from == "" {
			from = cfg.Username
		}
		if from == "" {
			from = "noreply@example.com"
		}

		m := gomail.NewMessage()
		m.SetHeader("From", from)
		m.SetHeader("To", str(a, 0))
		m.SetHeader("Subject", str(a, 1))
		if html := optStr(a, 3, ""); html != "" {
			m.SetBody("text/html", html)
		} else {
			m.SetBody("text/plain", str(a, 2))
		}

		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		if err := d.DialAndSend(m); err != nil {
			return nil, object.Raise(object.NetworkError, "failed to send email: %s", err)
		}
		ctx.Logger.Info("mail sent", "to", str(a, 0), "subject", str(a, 1))
		return object.TRUE, nil
	}, req("to", kString), req("subject", kString), opt("body", kString), opt("html", kString), opt("from", kString))

	return c
}
