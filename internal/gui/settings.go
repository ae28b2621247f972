package gui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/ingestion"
)

// createSettingsTab edits the configuration and hosts the batch imports
func (a *App) createSettingsTab() fyne.CanvasObject {
	baseURLEntry := widget.NewEntry()
	baseURLEntry.SetText(a.config.APIBaseURL)

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(strconv.Itoa(a.config.RequestTimeoutSeconds))

	perPageEntry := widget.NewEntry()
	perPageEntry.SetText(strconv.Itoa(a.config.PerPage))

	autoRefreshEntry := widget.NewEntry()
	autoRefreshEntry.SetPlaceHolder("e.g. @every 30s (empty disables)")
	autoRefreshEntry.SetText(a.config.AutoRefresh)

	uploadsEntry := widget.NewEntry()
	uploadsEntry.SetText(a.config.UploadsDir)

	gmailCredsEntry := widget.NewEntry()
	gmailCredsEntry.SetText(a.config.GmailCredentialsPath)

	gmailCredsBtn := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err == nil && uc != nil {
				gmailCredsEntry.SetText(uc.URI().Path())
				uc.Close()
			}
		}, a.mainWindow)
	})

	form := widget.NewForm(
		widget.NewFormItem("API Base URL", baseURLEntry),
		widget.NewFormItem("Request Timeout (s)", timeoutEntry),
		widget.NewFormItem("Page Size", perPageEntry),
		widget.NewFormItem("Rankings Auto Refresh", autoRefreshEntry),
		widget.NewFormItem("Uploads Folder", uploadsEntry),
		widget.NewFormItem("Gmail Credentials", container.NewBorder(nil, nil, nil, gmailCredsBtn, gmailCredsEntry)),
	)

	saveBtn := widget.NewButton("Save Settings", func() {
		updated := *a.config
		updated.APIBaseURL = strings.TrimSpace(baseURLEntry.Text)
		updated.AutoRefresh = strings.TrimSpace(autoRefreshEntry.Text)
		updated.UploadsDir = strings.TrimSpace(uploadsEntry.Text)
		updated.GmailCredentialsPath = strings.TrimSpace(gmailCredsEntry.Text)

		var err error
		if updated.RequestTimeoutSeconds, err = strconv.Atoi(strings.TrimSpace(timeoutEntry.Text)); err != nil {
			dialog.ShowError(fmt.Errorf("timeout must be a number"), a.mainWindow)
			return
		}
		if updated.PerPage, err = strconv.Atoi(strings.TrimSpace(perPageEntry.Text)); err != nil {
			dialog.ShowError(fmt.Errorf("page size must be a number"), a.mainWindow)
			return
		}

		if err := updated.Validate(); err != nil {
			dialog.ShowError(fmt.Errorf("validation failed: %w", err), a.mainWindow)
			return
		}
		if err := updated.Save(); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		*a.config = updated

		dialog.ShowInformation("Success", "Settings saved. Connection and page size changes apply after restart.", a.mainWindow)
	})

	return container.NewVScroll(container.NewVBox(
		form,
		saveBtn,
		widget.NewSeparator(),
		a.createImportSection(),
	))
}

// createImportSection uploads resumes in bulk from Gmail or the uploads folder
func (a *App) createImportSection() fyne.CanvasObject {
	subjectEntry := widget.NewEntry()
	subjectEntry.SetPlaceHolder("e.g., Job Application")

	progressLabel := widget.NewLabel("Ready")
	progressLabel.Wrapping = fyne.TextWrapWord
	progressBar := widget.NewProgressBar()
	progressBar.Hide()
	progress := func(current, total int, message string) {
		fyne.Do(func() {
			progressBar.SetValue(float64(current) / float64(total))
			progressLabel.SetText(message)
		})
	}

	var gmailBtn, folderBtn *widget.Button
	start := func(message string) {
		gmailBtn.Disable()
		folderBtn.Disable()
		progressLabel.SetText(message)
		progressBar.SetValue(0)
		progressBar.Show()
	}
	finish := func(report ingestion.ImportReport, err error) {
		fyne.Do(func() {
			gmailBtn.Enable()
			folderBtn.Enable()
			progressBar.Hide()

			if err != nil {
				progressLabel.SetText("Error: " + err.Error())
				dialog.ShowError(err, a.mainWindow)
				return
			}

			text := report.Summary()
			for _, f := range report.Failed {
				text += fmt.Sprintf("\n%s: %v", f.File.Name, f.Err)
			}
			progressLabel.SetText(text)
		})
	}

	files := ingestion.NewFileHandler(a.config.UploadsDir)

	gmailBtn = widget.NewButton("Import from Gmail", func() {
		subject := strings.TrimSpace(subjectEntry.Text)
		if subject == "" {
			dialog.ShowError(fmt.Errorf("please enter an email subject filter"), a.mainWindow)
			return
		}
		if a.config.GmailCredentialsPath == "" {
			dialog.ShowError(fmt.Errorf("please configure Gmail credentials first"), a.mainWindow)
			return
		}

		start("Fetching attachments from Gmail...")
		go func() {
			gh, err := ingestion.NewGmailHandler(a.ctx, ingestion.GmailConfig{
				CredentialsPath: a.config.GmailCredentialsPath,
				TokenPath:       a.config.GmailTokenPath,
			}, files, a.promptAuthCode)
			if err != nil {
				finish(ingestion.ImportReport{}, fmt.Errorf("authentication failed: %w", err))
				return
			}

			downloaded, err := gh.FetchAttachments(a.ctx, subject)
			if err != nil {
				finish(ingestion.ImportReport{}, err)
				return
			}
			finish(ingestion.UploadAll(a.ctx, a.resumes, downloaded, progress), nil)
		}()
	})

	folderBtn = widget.NewButton("Upload Folder", func() {
		start("Uploading resumes from " + files.Dir() + "...")
		go func() {
			pending, err := files.LoadResumes()
			if err != nil {
				finish(ingestion.ImportReport{}, err)
				return
			}
			finish(ingestion.UploadAll(a.ctx, a.resumes, pending, progress), nil)
		}()
	})

	return container.NewVBox(
		widget.NewLabel("Bulk Import"),
		widget.NewForm(widget.NewFormItem("Email Subject", subjectEntry)),
		container.NewHBox(gmailBtn, folderBtn),
		progressBar,
		progressLabel,
	)
}

// promptAuthCode opens the Gmail consent page and waits for the pasted code
func (a *App) promptAuthCode(authURL string) (string, error) {
	codes := make(chan string, 1)

	fyne.Do(func() {
		if u, err := url.Parse(authURL); err == nil {
			if err := a.fyneApp.OpenURL(u); err != nil {
				dialog.ShowInformation("Gmail Authorization", "Open this link in your browser:\n"+authURL, a.mainWindow)
			}
		}

		codeEntry := widget.NewEntry()
		dialog.ShowForm("Gmail Authorization", "Submit", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Authorization Code", codeEntry)},
			func(ok bool) {
				if !ok {
					codes <- ""
					return
				}
				codes <- codeEntry.Text
			}, a.mainWindow)
	})

	select {
	case code := <-codes:
		if strings.TrimSpace(code) == "" {
			return "", errors.New("authorization canceled")
		}
		return code, nil
	case <-a.ctx.Done():
		return "", context.Cause(a.ctx)
	}
}
