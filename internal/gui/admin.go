package gui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/aggregate"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/auth"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/export"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/ranking"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/views"
)

// createAdminTab shows platform statistics and every user's analyses
func (a *App) createAdminTab() fyne.CanvasObject {
	statsLabel := widget.NewLabel("Loading...")
	statsLabel.Wrapping = fyne.TextWrapWord
	recentJobs := container.NewVBox()

	updateStats := func() {
		st := a.adminStats.State()
		if !st.Loaded {
			return
		}

		if st.Stats.OK() {
			s := st.Stats.Value
			statsLabel.SetText(fmt.Sprintf(
				"Users: %d (%d admins)\nJobs: %d active, %d inactive\nAnalyses: %d completed, %d pending, %d processing, %d failed\nHigh suitability: %.1f%%",
				s.Users.Total, s.Users.Admins,
				s.Jobs.Active, s.Jobs.Inactive,
				s.Analyses.Completed, s.Analyses.Pending, s.Analyses.Processing, s.Analyses.Failed,
				aggregate.HighSuitabilityRate(s)))
		} else {
			statsLabel.SetText("Statistics unavailable")
		}

		jobs := []fyne.CanvasObject{}
		if st.Summary.OK() {
			for _, job := range st.Summary.Value.RecentJobs {
				jobs = append(jobs, container.NewBorder(nil, nil, nil,
					widget.NewButton("Rankings", func() { a.openRankings(job) }),
					widget.NewLabel(fmt.Sprintf("%s (%d applications)", job.Title, job.ApplicationCount))))
			}
		} else {
			jobs = append(jobs, widget.NewLabel("Recent jobs unavailable"))
		}
		replace(recentJobs, jobs...)
	}
	a.adminStats.OnChange(func() { fyne.Do(updateStats) })

	analyses := a.createAdminAnalysesPanel()

	return container.NewVScroll(container.NewVBox(
		widget.NewCard("Platform", "", statsLabel),
		widget.NewCard("Recent Jobs", "", recentJobs),
		widget.NewButton("Create Job", a.showCreateJobDialog),
		widget.NewSeparator(),
		analyses,
	))
}

func (a *App) createAdminAnalysesPanel() fyne.CanvasObject {
	jobEntry := widget.NewEntry()
	jobEntry.SetPlaceHolder("Job ID")

	statusSelect := widget.NewSelect([]string{allStatuses,
		string(models.AnalysisPending), string(models.AnalysisProcessing),
		string(models.AnalysisCompleted), string(models.AnalysisFailed)}, nil)
	statusSelect.SetSelected(allStatuses)

	verdictSelect := widget.NewSelect([]string{allStatuses,
		string(models.VerdictHigh), string(models.VerdictMedium), string(models.VerdictLow)}, nil)
	verdictSelect.SetSelected(allStatuses)

	applyFilter := widget.NewButton("Filter", func() {
		f := views.AnalysisFilter{}
		if id, err := strconv.Atoi(strings.TrimSpace(jobEntry.Text)); err == nil {
			f.JobID = id
		}
		if statusSelect.Selected != allStatuses {
			f.Status = models.AnalysisStatus(statusSelect.Selected)
		}
		if verdictSelect.Selected != allStatuses {
			f.Verdict = models.Verdict(verdictSelect.Selected)
		}
		a.background(func(ctx context.Context) error { return a.adminList.SetFilter(ctx, f) })
	})

	list := container.NewVBox()
	status := widget.NewLabel("")
	p := newPager(func(page int) {
		a.background(func(ctx context.Context) error { return a.adminList.SetPage(ctx, page) })
	})

	update := func() {
		snap := a.adminList.Analyses.Snapshot()
		pageOf(p, snap)
		status.SetText(snapshotStatus(snap))

		rows := []fyne.CanvasObject{}
		for _, an := range snap.Items {
			id := an.ID
			text := fmt.Sprintf("#%d %s | %s | job #%d | %s",
				an.ID, aggregate.CandidateName(an), aggregate.ResumeName(an), an.JobID, an.Status)
			if an.Status == models.AnalysisCompleted {
				text += " | " + ranking.ScoreLabel(an) + " " + string(an.Verdict)
			}
			reprocess := widget.NewButton("Reprocess", func() {
				a.background(func(ctx context.Context) error { return a.adminList.Reprocess(ctx, id) })
			})
			rows = append(rows, container.NewBorder(nil, nil, nil, reprocess, widget.NewLabel(text)))
		}
		replace(list, rows...)
	}
	a.adminList.OnChange(func() { fyne.Do(update) })

	filters := container.NewHBox(widget.NewLabel("All Analyses"), jobEntry, statusSelect, verdictSelect, applyFilter)
	return container.NewVBox(filters, status, list, p.object())
}

// showCreateJobDialog collects a new job posting with an optional JD PDF
func (a *App) showCreateJobDialog() {
	if d := a.gate.Decide(auth.RouteCreateJob); d.Outcome != auth.OutcomeAllow {
		return
	}

	title := widget.NewEntry()
	company := widget.NewEntry()
	location := widget.NewEntry()
	employment := widget.NewSelect([]string{"Full-time", "Part-time", "Contract", "Internship"}, nil)
	employment.SetSelected("Full-time")
	level := widget.NewSelect([]string{"Entry", "Mid", "Senior", "Lead"}, nil)
	level.SetSelected("Mid")

	description := widget.NewMultiLineEntry()
	description.SetMinRowsVisible(4)
	requirements := widget.NewMultiLineEntry()
	requirements.SetPlaceHolder("One per line")
	requirements.SetMinRowsVisible(3)

	var jdName string
	var jdData []byte
	jdLabel := widget.NewLabel("No file")
	jdBtn := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			defer uc.Close()
			data, err := io.ReadAll(uc)
			if err != nil {
				dialog.ShowError(err, a.mainWindow)
				return
			}
			jdName, jdData = uc.URI().Name(), data
			jdLabel.SetText(jdName)
		}, a.mainWindow)
	})

	items := []*widget.FormItem{
		widget.NewFormItem("Title", title),
		widget.NewFormItem("Company", company),
		widget.NewFormItem("Location", location),
		widget.NewFormItem("Employment", employment),
		widget.NewFormItem("Experience", level),
		widget.NewFormItem("Description", description),
		widget.NewFormItem("Requirements", requirements),
		widget.NewFormItem("JD PDF", container.NewBorder(nil, nil, nil, jdBtn, jdLabel)),
	}

	form := dialog.NewForm("Create Job", "Create", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		if strings.TrimSpace(title.Text) == "" {
			dialog.ShowError(errors.New("job title is required"), a.mainWindow)
			return
		}
		job := models.NewJob{
			Title:           strings.TrimSpace(title.Text),
			Company:         strings.TrimSpace(company.Text),
			Location:        strings.TrimSpace(location.Text),
			Description:     description.Text,
			Requirements:    requirements.Text,
			EmploymentType:  employment.Selected,
			ExperienceLevel: level.Selected,
		}
		name, data := jdName, jdData
		a.background(func(ctx context.Context) error {
			var pdf io.Reader
			if data != nil {
				pdf = bytes.NewReader(data)
			}
			_, err := a.jobs.Create(ctx, job, name, pdf)
			return err
		})
	}, a.mainWindow)
	form.Resize(fyne.NewSize(640, 620))
	form.Show()
}

// openRankings shows the candidate ranking of one job in its own window.
// Refresh is disabled while a refresh is in flight.
func (a *App) openRankings(job models.JobPosting) {
	if d := a.gate.Decide(auth.RankingsRoute(job.ID)); d.Outcome != auth.OutcomeAllow {
		return
	}

	v := views.NewRankingsView(a.client, job.ID, a.config.RankingsLimit, a.notify)
	ctx, cancel := context.WithCancel(a.ctx)

	w := a.fyneApp.NewWindow("Rankings: " + job.Title)
	w.Resize(fyne.NewSize(900, 650))

	queueLabel := widget.NewLabel("Queue: loading...")
	rowsBox := container.NewVBox()
	refreshBtn := widget.NewButton("Refresh", nil)
	exportBtn := widget.NewButton("Export to Excel", nil)
	exportBtn.Disable()

	update := func() {
		st := v.State()
		if st.InFlight {
			refreshBtn.Disable()
		} else {
			refreshBtn.Enable()
		}

		switch {
		case st.QueueErr != nil:
			queueLabel.SetText("Queue: unavailable")
		case st.QueueSet:
			q := st.Queue
			text := fmt.Sprintf("Queue: %d pending, %d processing, %d completed", q.Pending, q.Processing, q.Completed)
			if q.ShowWaitTime() {
				text += fmt.Sprintf(" (about %d min)", q.EstimatedWaitTime)
			}
			queueLabel.SetText(text)
		}

		rows := []fyne.CanvasObject{}
		switch {
		case st.RankingsErr != nil:
			rows = append(rows, widget.NewLabel("Rankings unavailable"))
		case st.RankingsSet && len(st.Rows) == 0:
			rows = append(rows, widget.NewLabel("No candidates have been analyzed yet"))
		}
		for _, r := range st.Rows {
			rows = append(rows, rankingCard(r))
		}
		replace(rowsBox, rows...)

		if st.RankingsSet && st.RankingsErr == nil {
			exportBtn.Enable()
		} else {
			exportBtn.Disable()
		}
	}
	v.OnChange(func() { fyne.Do(update) })

	refreshBtn.OnTapped = func() {
		refreshBtn.Disable()
		a.run(ctx, v.Refresh)
	}
	exportBtn.OnTapped = func() { a.exportRankings(w, v) }

	if a.config.AutoRefresh != "" {
		if err := v.Coordinator().Schedule(a.config.AutoRefresh); err != nil {
			a.notify.Error(err)
		}
	}
	w.SetOnClosed(func() {
		v.Coordinator().Stop()
		cancel()
	})

	w.SetContent(container.NewBorder(
		container.NewVBox(widget.NewLabel(job.Title), queueLabel, container.NewHBox(refreshBtn, exportBtn)),
		nil, nil, nil,
		container.NewVScroll(rowsBox),
	))
	w.Show()

	a.run(ctx, v.Refresh)
}

func rankingCard(r ranking.Row) fyne.CanvasObject {
	a := r.Analysis
	title := fmt.Sprintf("#%d %s", r.RankLabel, r.CandidateName)
	if r.TopCandidate {
		title += " (top candidate)"
	}

	lines := []fyne.CanvasObject{
		widget.NewLabel(fmt.Sprintf("Score: %s (%s)  Verdict: %s", ranking.ScoreLabel(a), ranking.Band(a), a.Verdict)),
	}
	if shown, overflow := ranking.SkillsPreview(a.MissingSkills); len(shown) > 0 {
		text := "Missing: " + strings.Join(shown, ", ")
		if more := ranking.OverflowLabel(overflow); more != "" {
			text += " " + more
		}
		lines = append(lines, widget.NewLabel(text))
	}
	if a.ImprovementSuggestions != "" {
		s := widget.NewLabel(a.ImprovementSuggestions)
		s.Wrapping = fyne.TextWrapWord
		lines = append(lines, s)
	}

	return widget.NewCard(title, r.ResumeName, container.NewVBox(lines...))
}

// exportRankings writes the current ranking to a workbook
func (a *App) exportRankings(w fyne.Window, v *views.RankingsView) {
	st := v.State()
	report := export.Report{Job: st.Job, Rows: st.Rows, Generated: time.Now()}
	if st.QueueSet && st.QueueErr == nil {
		q := st.Queue
		report.Queue = &q
	}

	save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if uc == nil {
			return // User canceled
		}
		outputPath := uc.URI().Path()
		uc.Close()

		path, err := export.ExportRankings(report, outputPath)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to export: %w", err), w)
			return
		}
		dialog.ShowInformation("Success", "Rankings exported to "+filepath.Base(path), w)
	}, w)
	save.SetFileName(export.DefaultFilename(st.Job, report.Generated))
	save.Show()
}
