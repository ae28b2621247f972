package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/api"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/auth"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// createLoginScreen builds the sign-in form, or the registration form when
// register is set
func (a *App) createLoginScreen(register bool) fyne.CanvasObject {
	usernameEntry := widget.NewEntry()
	usernameEntry.SetPlaceHolder("Username")

	emailEntry := widget.NewEntry()
	emailEntry.SetPlaceHolder("you@example.com")

	passwordEntry := widget.NewPasswordEntry()
	passwordEntry.SetPlaceHolder("Password")

	statusLabel := widget.NewLabel("")
	statusLabel.Wrapping = fyne.TextWrapWord

	var submitBtn *widget.Button
	submit := func() {
		username := strings.TrimSpace(usernameEntry.Text)
		if username == "" || passwordEntry.Text == "" {
			dialog.ShowError(fmt.Errorf("please enter a username and password"), a.mainWindow)
			return
		}

		submitBtn.Disable()
		statusLabel.SetText("Signing in...")

		go func() {
			var err error
			if register {
				err = a.gate.Register(a.ctx, models.Credentials{
					Username: username,
					Email:    strings.TrimSpace(emailEntry.Text),
					Password: passwordEntry.Text,
				})
			} else {
				err = a.gate.Login(a.ctx, username, passwordEntry.Text)
			}

			fyne.Do(func() {
				submitBtn.Enable()
				if err != nil {
					statusLabel.SetText(api.Message(err))
					return
				}
				statusLabel.SetText("")
				a.show(auth.RouteDashboard)
			})
		}()
	}

	title := "Sign In"
	items := []*widget.FormItem{
		widget.NewFormItem("Username", usernameEntry),
		widget.NewFormItem("Password", passwordEntry),
	}
	switchLabel, switchRoute := "Create an account", auth.RouteRegister
	if register {
		title = "Create Account"
		items = []*widget.FormItem{
			widget.NewFormItem("Username", usernameEntry),
			widget.NewFormItem("Email", emailEntry),
			widget.NewFormItem("Password", passwordEntry),
		}
		switchLabel, switchRoute = "I already have an account", auth.RouteLogin
	}

	submitBtn = widget.NewButton(title, submit)
	submitBtn.Importance = widget.HighImportance
	passwordEntry.OnSubmitted = func(string) { submit() }

	switchBtn := widget.NewButton(switchLabel, func() { a.show(switchRoute) })
	switchBtn.Importance = widget.LowImportance

	card := widget.NewCard(title, "Resume Screening", container.NewVBox(
		widget.NewForm(items...),
		submitBtn,
		statusLabel,
		switchBtn,
	))

	return container.NewCenter(container.NewGridWrap(fyne.NewSize(420, 380), card))
}
