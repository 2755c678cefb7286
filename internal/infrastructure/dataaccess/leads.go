package dataaccess

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/restclient"
	"golang.org/x/sync/errgroup"
)

const inquiryPath = "/contact"

func originPath(origin lead.Origin) string {
	return "/" + string(origin)
}

func (s *Store) listApplications(ctx context.Context, origin lead.Origin) ([]lead.LoanApplication, error) {
	op := "applications.list." + string(origin)
	resp, err := s.call(ctx, op, restclient.Request{Method: http.MethodGet, Path: originPath(origin)})
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[applicationWire](resp.Body)
	if err != nil {
		return nil, s.decodeFailure(ctx, op, resp.StatusCode, err)
	}
	out := make([]lead.LoanApplication, 0, len(wires))
	for _, w := range wires {
		out = append(out, applicationFromWire(w, origin))
	}
	return out, nil
}

// GetApplications fetches the finance and support resources in parallel and
// merges them, newest first. Either resource failing fails the whole read.
func (s *Store) GetApplications(ctx context.Context) ([]lead.LoanApplication, error) {
	var finance, support []lead.LoanApplication

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		finance, err = s.listApplications(gctx, lead.OriginFinance)
		return err
	})
	g.Go(func() error {
		var err error
		support, err = s.listApplications(gctx, lead.OriginSupport)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]lead.LoanApplication, 0, len(finance)+len(support))
	merged = append(merged, finance...)
	merged = append(merged, support...)
	SortApplications(merged)
	return merged, nil
}

// SortApplications orders applications by date descending. Calendar dates
// compare correctly as strings.
func SortApplications(apps []lead.LoanApplication) {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].Date > apps[j].Date
	})
}

// SaveApplication stores a new application in the resource matching its track
func (s *Store) SaveApplication(ctx context.Context, app lead.LoanApplication) (lead.LoanApplication, error) {
	origin := app.Origin()
	op := "applications.create." + string(origin)
	if err := app.Validate(); err != nil {
		return app, s.fail(ctx, &shared.AccessError{Op: op, Kind: shared.KindValidation, Message: err.Error(), Err: err})
	}
	if app.Status == "" {
		app.Status = lead.ApplicationPending
	}
	if app.Date == "" {
		app.Date = content.Today()
	}

	resp, err := s.call(ctx, op, restclient.Request{Method: http.MethodPost, Path: originPath(origin), Body: applicationToWire(app)})
	if err != nil {
		return app, err
	}
	w, ok, err := decodeOne[applicationWire](resp.Body)
	if err != nil {
		return app, s.decodeFailure(ctx, op, resp.StatusCode, err)
	}
	if ok {
		if id := w.resolve(); id != "" {
			app.ID = id
		}
	}
	return app, nil
}

// UpdateApplicationStatus sets the status of one application in its origin resource
func (s *Store) UpdateApplicationStatus(ctx context.Context, origin lead.Origin, id string, status lead.ApplicationStatus) error {
	op := "applications.update_status." + string(origin)
	_, err := s.call(ctx, op, restclient.Request{
		Method: http.MethodPatch,
		Path:   originPath(origin) + "/" + url.PathEscape(id),
		Body:   map[string]string{"status": string(status)},
	})
	return err
}

// DeleteApplication removes one application from its origin resource
func (s *Store) DeleteApplication(ctx context.Context, origin lead.Origin, id string) error {
	op := "applications.delete." + string(origin)
	_, err := s.call(ctx, op, restclient.Request{Method: http.MethodDelete, Path: originPath(origin) + "/" + url.PathEscape(id)})
	return err
}

// GetInquiries lists contact inquiries, newest first
func (s *Store) GetInquiries(ctx context.Context) ([]lead.ContactInquiry, error) {
	const op = "inquiries.list"
	resp, err := s.call(ctx, op, restclient.Request{Method: http.MethodGet, Path: inquiryPath})
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[inquiryWire](resp.Body)
	if err != nil {
		return nil, s.decodeFailure(ctx, op, resp.StatusCode, err)
	}
	out := make([]lead.ContactInquiry, 0, len(wires))
	for _, w := range wires {
		out = append(out, inquiryFromWire(w))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// SaveInquiry stores a new contact inquiry
func (s *Store) SaveInquiry(ctx context.Context, inq lead.ContactInquiry) (lead.ContactInquiry, error) {
	return s.saveInquiry(ctx, "inquiries.create", inq)
}

func (s *Store) saveInquiry(ctx context.Context, op string, inq lead.ContactInquiry) (lead.ContactInquiry, error) {
	if inq.Status == "" {
		inq.Status = lead.InquiryUnread
	}
	if inq.Date == "" {
		inq.Date = content.Today()
	}
	resp, err := s.call(ctx, op, restclient.Request{Method: http.MethodPost, Path: inquiryPath, Body: inquiryToWire(inq)})
	if err != nil {
		return inq, err
	}
	w, ok, err := decodeOne[inquiryWire](resp.Body)
	if err != nil {
		return inq, s.decodeFailure(ctx, op, resp.StatusCode, err)
	}
	if ok {
		if id := w.resolve(); id != "" {
			inq.ID = id
		}
	}
	return inq, nil
}

// UpdateInquiryStatus sets the status of one inquiry
func (s *Store) UpdateInquiryStatus(ctx context.Context, id string, status lead.InquiryStatus) error {
	_, err := s.call(ctx, "inquiries.update_status", restclient.Request{
		Method: http.MethodPatch,
		Path:   inquiryPath + "/" + url.PathEscape(id),
		Body:   map[string]string{"status": string(status)},
	})
	return err
}

// DeleteInquiry removes one inquiry
func (s *Store) DeleteInquiry(ctx context.Context, id string) error {
	_, err := s.call(ctx, "inquiries.delete", restclient.Request{Method: http.MethodDelete, Path: inquiryPath + "/" + url.PathEscape(id)})
	return err
}

// SaveNewsletterSubscription stores the signup as an inquiry with the
// synthetic newsletter subject. The WriteResult is always populated, so a
// 409 from the service comes back as {false, <server message>, 409}.
func (s *Store) SaveNewsletterSubscription(ctx context.Context, sub lead.NewsletterSubscription) (shared.WriteResult, error) {
	_, err := s.saveInquiry(ctx, "newsletter.create", sub.ToInquiry(content.Today()))
	return shared.ResultFromError(err, "Subscribed successfully"), err
}
