package gui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/aggregate"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/ingestion"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/ranking"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/store"
)

const allStatuses = "All"

func statText(s aggregate.Stat) string {
	if s.Pending {
		return "loading..."
	}
	if !s.OK() {
		return "unavailable"
	}
	return strconv.Itoa(s.Value)
}

// pager renders "Page x of y" with previous/next buttons
type pager struct {
	label *widget.Label
	prev  *widget.Button
	next  *widget.Button
	page  int
}

func newPager(setPage func(page int)) *pager {
	p := &pager{label: widget.NewLabel(""), page: 1}
	p.prev = widget.NewButton("Previous", func() { setPage(p.page - 1) })
	p.next = widget.NewButton("Next", func() { setPage(p.page + 1) })
	return p
}

func pageOf[T any](p *pager, snap store.Snapshot[T]) {
	p.page = snap.Page
	pages := max(snap.Pages, 1)
	p.label.SetText(fmt.Sprintf("Page %d of %d (%d total)", max(snap.Page, 1), pages, snap.Total))
	if snap.Page > 1 {
		p.prev.Enable()
	} else {
		p.prev.Disable()
	}
	if snap.Page < snap.Pages {
		p.next.Enable()
	} else {
		p.next.Disable()
	}
}

func (p *pager) object() fyne.CanvasObject {
	return container.NewHBox(p.prev, p.label, p.next)
}

// replace swaps the children of box and redraws it
func replace(box *fyne.Container, objects ...fyne.CanvasObject) {
	box.Objects = objects
	box.Refresh()
}

func analysisLine(a models.Analysis) string {
	line := fmt.Sprintf("%s: %s", aggregate.ResumeName(a), a.Status)
	if a.Status == models.AnalysisCompleted {
		line += fmt.Sprintf(" (score %s, %s)", ranking.ScoreLabel(a), a.Verdict)
	}
	return line
}

// createDashboardTab shows collection totals and recent analyses
func (a *App) createDashboardTab() fyne.CanvasObject {
	jobs := widget.NewLabel("")
	resumes := widget.NewLabel("")
	applications := widget.NewLabel("")
	completed := widget.NewLabel("")
	pending := widget.NewLabel("")
	recent := container.NewVBox()

	update := func() {
		stats := a.dashboard.Stats()
		jobs.SetText(statText(stats.TotalJobs))
		resumes.SetText(statText(stats.MyResumes))
		applications.SetText(statText(stats.MyApplications))
		completed.SetText(statText(stats.CompletedAnalyses))
		pending.SetText(statText(stats.PendingAnalyses))

		lines := []fyne.CanvasObject{}
		for _, an := range stats.RecentAnalyses {
			lines = append(lines, widget.NewLabel(analysisLine(an)))
		}
		if len(lines) == 0 {
			lines = append(lines, widget.NewLabel("No analyses yet"))
		}
		replace(recent, lines...)
	}
	a.dashboard.OnChange(func() { fyne.Do(update) })
	update()

	refreshBtn := widget.NewButton("Refresh", func() { a.background(a.dashboard.Refresh) })

	form := widget.NewForm(
		widget.NewFormItem("Active Jobs", jobs),
		widget.NewFormItem("My Resumes", resumes),
		widget.NewFormItem("My Applications", applications),
		widget.NewFormItem("Completed Analyses", completed),
		widget.NewFormItem("Pending Analyses", pending),
	)

	return container.NewVScroll(container.NewVBox(
		form,
		widget.NewSeparator(),
		widget.NewLabel("Recent Analyses"),
		recent,
		refreshBtn,
	))
}

// createJobsTab is the searchable job board
func (a *App) createJobsTab() fyne.CanvasObject {
	searchEntry := widget.NewEntry()
	searchEntry.SetPlaceHolder("Search jobs...")
	search := func() {
		term := strings.TrimSpace(searchEntry.Text)
		a.background(func(ctx context.Context) error { return a.jobs.Search(ctx, term) })
	}
	searchEntry.OnSubmitted = func(string) { search() }
	searchBtn := widget.NewButton("Search", search)

	list := container.NewVBox()
	p := newPager(func(page int) {
		a.background(func(ctx context.Context) error { return a.jobs.SetPage(ctx, page) })
	})
	status := widget.NewLabel("")

	update := func() {
		snap := a.jobs.Jobs.Snapshot()
		pageOf(p, snap)
		status.SetText(snapshotStatus(snap))

		cards := []fyne.CanvasObject{}
		for _, job := range snap.Items {
			cards = append(cards, a.jobCard(job))
		}
		replace(list, cards...)
	}
	a.jobs.OnChange(func() { fyne.Do(update) })
	update()

	toolbar := container.NewBorder(nil, nil, nil, searchBtn, searchEntry)
	if a.gate.Session().IsAdmin() {
		toolbar = container.NewBorder(nil, nil, nil,
			container.NewHBox(searchBtn, widget.NewButton("Create Job", a.showCreateJobDialog)),
			searchEntry)
	}

	return container.NewBorder(
		container.NewVBox(toolbar, status),
		p.object(), nil, nil,
		container.NewVScroll(list),
	)
}

func snapshotStatus[T any](snap store.Snapshot[T]) string {
	switch snap.Status {
	case store.StatusLoading:
		return "Loading..."
	case store.StatusError:
		return "Failed to load: " + snap.Err.Error()
	}
	if snap.Loaded() && len(snap.Items) == 0 {
		return "Nothing to show"
	}
	return ""
}

func (a *App) jobCard(job models.JobPosting) fyne.CanvasObject {
	subtitle := strings.Join(nonEmpty(job.Company, job.Location, job.EmploymentType, job.ExperienceLevel), " | ")
	desc := widget.NewLabel(job.Description)
	desc.Wrapping = fyne.TextWrapWord

	applyBtn := widget.NewButton("Apply", func() {
		a.pickResume("Apply", func(r models.Resume) {
			a.background(func(ctx context.Context) error {
				_, err := a.applications.Apply(ctx, job.ID, r.ID)
				return err
			})
		})
	})
	analyzeBtn := widget.NewButton("Analyze My Resume", func() {
		a.pickResume("Analyze", func(r models.Resume) {
			a.background(func(ctx context.Context) error {
				_, err := a.resumes.Analyze(ctx, r.ID, job.ID)
				return err
			})
		})
	})

	buttons := container.NewHBox(applyBtn, analyzeBtn)
	if a.gate.Session().IsAdmin() {
		buttons.Add(widget.NewButton("Rankings", func() { a.openRankings(job) }))
	}

	return widget.NewCard(job.Title, subtitle, container.NewVBox(desc, buttons))
}

func nonEmpty(values ...string) []string {
	out := []string{}
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// pickResume asks for one of the loaded resumes and passes it to fn
func (a *App) pickResume(action string, fn func(models.Resume)) {
	resumes := a.resumes.Resumes.Snapshot().Items
	if len(resumes) == 0 {
		dialog.ShowInformation(action, "Upload a resume first (My Resumes tab)", a.mainWindow)
		return
	}

	names := make([]string, len(resumes))
	for i, r := range resumes {
		names[i] = fmt.Sprintf("%s (#%d)", r.OriginalFilename, r.ID)
	}
	choice := widget.NewSelect(names, nil)
	choice.SetSelectedIndex(0)

	dialog.ShowForm(action, action, "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Resume", choice)},
		func(ok bool) {
			if ok && choice.SelectedIndex() >= 0 {
				fn(resumes[choice.SelectedIndex()])
			}
		}, a.mainWindow)
}

// createResumesTab lists the user's resumes with their analysis summaries
func (a *App) createResumesTab() fyne.CanvasObject {
	list := container.NewVBox()
	status := widget.NewLabel("")
	p := newPager(func(page int) {
		a.background(func(ctx context.Context) error { return a.resumes.SetPage(ctx, page) })
	})

	update := func() {
		snap := a.resumes.Resumes.Snapshot()
		pageOf(p, snap)
		status.SetText(snapshotStatus(snap))
		if a.resumes.Loading() {
			status.SetText("Loading...")
		}

		cards := []fyne.CanvasObject{}
		for _, card := range a.resumes.Cards() {
			cards = append(cards, a.resumeCard(card))
		}
		replace(list, cards...)
	}
	a.resumes.OnChange(func() { fyne.Do(update) })
	update()

	uploadBtn := widget.NewButton("Upload Resume", a.handleUpload)
	uploadBtn.Importance = widget.HighImportance

	return container.NewBorder(
		container.NewVBox(uploadBtn, status),
		p.object(), nil, nil,
		container.NewVScroll(list),
	)
}

func (a *App) resumeCard(card aggregate.ResumeRollup) fyne.CanvasObject {
	s := card.Summary
	summary := fmt.Sprintf("Completed: %d  Pending: %d", s.CompletedCount, s.PendingCount)
	if avg := s.AverageLabel(); avg != "" {
		summary += "  Average score: " + avg
	}

	lines := []fyne.CanvasObject{widget.NewLabel(summary)}
	for _, an := range card.Recent {
		line := fmt.Sprintf("Job #%d: %s", an.JobID, an.Status)
		if an.Status == models.AnalysisCompleted {
			line += " " + ranking.ScoreLabel(an)
		}
		lines = append(lines, widget.NewLabel(line))
	}
	if card.HasMore() {
		lines = append(lines, widget.NewLabel(fmt.Sprintf("View all %d analyses", card.AnalysisCount)))
	}

	resume := card.Resume
	deleteBtn := widget.NewButton("Delete", func() {
		dialog.ShowConfirm("Delete Resume",
			fmt.Sprintf("Delete %s and its analyses?", resume.OriginalFilename),
			func(ok bool) {
				if ok {
					a.background(func(ctx context.Context) error { return a.resumes.Delete(ctx, resume.ID) })
				}
			}, a.mainWindow)
	})
	deleteBtn.Importance = widget.DangerImportance
	lines = append(lines, deleteBtn)

	subtitle := fmt.Sprintf("%s, uploaded %s", resume.FileType, resume.UploadedAt.Display())
	return widget.NewCard(resume.OriginalFilename, subtitle, container.NewVBox(lines...))
}

// handleUpload validates a chosen file locally before sending it
func (a *App) handleUpload() {
	dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		name := uc.URI().Name()
		data, err := io.ReadAll(io.LimitReader(uc, ingestion.MaxResumeSize+1))
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to read %s: %w", name, err), a.mainWindow)
			return
		}
		if err := ingestion.ValidateResume(name, int64(len(data)), data); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}

		a.background(func(ctx context.Context) error {
			_, err := a.resumes.Upload(ctx, name, bytes.NewReader(data))
			return err
		})
	}, a.mainWindow)
}

// createApplicationsTab lists the user's applications under a status filter
func (a *App) createApplicationsTab() fyne.CanvasObject {
	options := []string{allStatuses}
	for _, st := range models.ApplicationStatuses {
		options = append(options, string(st))
	}
	filter := widget.NewSelect(options, func(choice string) {
		status := models.ApplicationStatus(choice)
		if choice == allStatuses {
			status = ""
		}
		a.background(func(ctx context.Context) error { return a.applications.SetFilter(ctx, status) })
	})
	filter.SetSelected(allStatuses)

	counts := widget.NewLabel("")
	status := widget.NewLabel("")
	list := container.NewVBox()
	p := newPager(func(page int) {
		a.background(func(ctx context.Context) error { return a.applications.SetPage(ctx, page) })
	})

	update := func() {
		snap := a.applications.Applications.Snapshot()
		pageOf(p, snap)
		status.SetText(snapshotStatus(snap))

		c := a.applications.StatusCounts()
		parts := []string{}
		for _, st := range models.ApplicationStatuses {
			parts = append(parts, fmt.Sprintf("%s: %d", st, c[st]))
		}
		counts.SetText(strings.Join(parts, "  "))

		cards := []fyne.CanvasObject{}
		for _, app := range snap.Items {
			cards = append(cards, a.applicationCard(app))
		}
		replace(list, cards...)
	}
	a.applications.OnChange(func() { fyne.Do(update) })
	update()

	return container.NewBorder(
		container.NewVBox(container.NewHBox(widget.NewLabel("Status"), filter), counts, status),
		p.object(), nil, nil,
		container.NewVScroll(list),
	)
}

func (a *App) applicationCard(app models.Application) fyne.CanvasObject {
	title := fmt.Sprintf("Job #%d", app.JobID)
	if app.Job != nil {
		title = app.Job.Title
	}
	resume := fmt.Sprintf("Resume #%d", app.ResumeID)
	if app.Resume != nil {
		resume = app.Resume.OriginalFilename
	}

	withdrawBtn := widget.NewButton("Withdraw", func() {
		dialog.ShowConfirm("Withdraw Application", "Withdraw this application?", func(ok bool) {
			if ok {
				a.background(func(ctx context.Context) error { return a.applications.Withdraw(ctx, app) })
			}
		}, a.mainWindow)
	})
	if !a.applications.CanWithdraw(app) {
		withdrawBtn.Disable()
	}

	details := widget.NewLabel(fmt.Sprintf("%s | %s | applied %s", app.Status, resume, app.AppliedAt.Display()))
	return widget.NewCard(title, "", container.NewVBox(details, withdrawBtn))
}
