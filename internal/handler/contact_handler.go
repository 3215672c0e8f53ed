package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/service"
)

const contactPath = "/kontakt"

// ShowContact renders the contact form.
func (a *API) ShowContact(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "contact.html", gin.H{
		"title": "Kontakt",
	})
}

// SubmitContact stores a contact message. Honeypot hits get the same
// success redirect as real messages.
func (a *API) SubmitContact(c *gin.Context) {
	input := service.ContactInput{
		Name:      c.PostForm("name"),
		Email:     c.PostForm("email"),
		Subject:   c.PostForm("subject"),
		Message:   c.PostForm("message"),
		Honeypot:  c.PostForm("website"),
		IPAddress: c.ClientIP(),
	}

	if _, err := a.contact.Submit(c.Request.Context(), input); err != nil {
		var message string
		switch {
		case errors.Is(err, service.ErrContactFieldsMissing):
			message = "Wypełnij wszystkie pola."
		case errors.Is(err, service.ErrContactFieldTooLong):
			message = "Jedno z pól jest za długie."
		case errors.Is(err, service.ErrContactEmailInvalid):
			message = "Podaj poprawny adres e-mail."
		default:
			a.renderServerError(c, err)
			return
		}
		a.renderHTML(c, http.StatusUnprocessableEntity, "contact.html", gin.H{
			"title": "Kontakt",
			"error": message,
			"form":  input,
		})
		return
	}

	setFlash(c, "Dziękujemy! Wiadomość została wysłana.")
	redirectSeeOther(c, contactPath)
}
