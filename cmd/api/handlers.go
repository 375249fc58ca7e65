package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"detention/internal/auth"
	"detention/internal/cell"
	"detention/internal/cloudinary"
	"detention/internal/config"
	"detention/internal/domain"
	"detention/internal/inmate"
	"detention/internal/medical"
	"detention/internal/metrics"
	"detention/internal/queue"
	"detention/internal/staff"
	"detention/internal/store"
	"detention/internal/visitation"
)

// api bundles the services behind the HTTP surface.
type api struct {
	cfg     config.App
	inmates *inmate.Service
	visits  *visitation.Service
	medical *medical.Repository
	cells   *cell.Repository
	staff   *staff.Repository
	cdn     *cloudinary.Client
	q       queue.Queue
}

// respondErr maps domain errors onto HTTP statuses.
func respondErr(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseDate parses a YYYY-MM-DD form value; empty means nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (a *api) registerRoutes(r *gin.Engine) {
	r.POST("/v1/auth/login", a.login)
	r.POST("/v1/auth/refresh", a.refresh)

	g := r.Group("/v1", auth.StaffAuth(a.cfg.JWTSigningKey, a.cfg.JWTIssuer))

	g.POST("/inmates", a.createInmate)
	g.GET("/inmates", a.listInmates)
	g.GET("/inmates/:id", a.getInmate)
	g.PATCH("/inmates/:id", a.updateSentenceTerms)
	g.POST("/inmates/:id/recalculate", a.recalculateSentence)
	g.DELETE("/inmates/:id", auth.RequireRole(auth.RoleWarden), a.dischargeInmate)

	g.POST("/inmates/:id/points", a.addPoints)
	g.GET("/inmates/:id/points", a.pointsHistory)
	g.GET("/tiers", a.tiers)

	g.POST("/inmates/:id/visitors", a.registerVisitor)
	g.GET("/inmates/:id/visitors", a.listVisitors)
	g.GET("/visitors/:id", a.getVisitor)

	g.GET("/conjugal/:id/eligibility", a.conjugalEligibility)
	g.POST("/conjugal/:id/status", auth.RequireRole(auth.RoleWarden), a.setConjugalStatus)
	g.POST("/conjugal/:id/logs", a.logConjugalVisit)
	g.GET("/conjugal/:id/logs", a.listConjugalVisitLogs)

	g.POST("/visit-requests", a.createVisitRequest)
	g.GET("/visit-requests/:id", a.getVisitRequest)

	g.POST("/cells", auth.RequireRole(auth.RoleWarden), a.createCell)
	g.GET("/cells/occupancy", a.cellOccupancy)
	g.GET("/cells/:id", a.getCell)

	g.POST("/inmates/:id/medical", a.createMedicalRecord)
	g.GET("/inmates/:id/medical", a.listMedicalRecords)

	g.POST("/staff", auth.RequireRole(auth.RoleAdmin), a.createStaff)

	g.POST("/upload", a.upload)
}

func (a *api) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := a.staff.GetByUsername(c.Request.Context(), req.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	tokens, err := auth.Issue(user.ID, user.Role, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	_ = a.staff.SaveRefreshToken(c.Request.Context(), user.ID, tokens.RefreshToken, tokens.RefreshExp)

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
		"role":          user.Role,
	})
}

func (a *api) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, err := auth.Parse(req.RefreshToken, a.cfg.JWTSigningKey, a.cfg.JWTIssuer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	userID, ok, err := a.staff.RefreshTokenValid(c.Request.Context(), req.RefreshToken)
	if err != nil || !ok || userID != claims.Subject {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token revoked or expired"})
		return
	}
	tokens, err := auth.Issue(claims.Subject, claims.Role, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	_ = a.staff.RevokeRefreshToken(c.Request.Context(), req.RefreshToken)
	_ = a.staff.SaveRefreshToken(c.Request.Context(), claims.Subject, tokens.RefreshToken, tokens.RefreshExp)

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

func (a *api) createInmate(c *gin.Context) {
	var req struct {
		BookingNumber        string  `json:"booking_number" binding:"required"`
		FirstName            string  `json:"first_name" binding:"required"`
		LastName             string  `json:"last_name" binding:"required"`
		DateOfBirth          string  `json:"date_of_birth"`
		Gender               *string `json:"gender"`
		CellID               *string `json:"cell_id"`
		InitialPoints        int     `json:"initial_points"`
		OriginalSentenceDays *int    `json:"original_sentence_days"`
		AdmissionDate        string  `json:"admission_date"`
		PhotoURL             *string `json:"photo_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_of_birth"})
		return
	}
	admission, err := parseDate(req.AdmissionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admission_date"})
		return
	}
	inm, err := a.inmates.Intake(c.Request.Context(), inmate.IntakeInput{
		BookingNumber:        req.BookingNumber,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		DateOfBirth:          dob,
		Gender:               req.Gender,
		CellID:               req.CellID,
		InitialPoints:        req.InitialPoints,
		OriginalSentenceDays: req.OriginalSentenceDays,
		AdmissionDate:        admission,
		PhotoURL:             req.PhotoURL,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, inm)
}

func (a *api) listInmates(c *gin.Context) {
	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	inmates, err := a.inmates.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inmates": inmates})
}

func (a *api) getInmate(c *gin.Context) {
	inm, err := a.inmates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, inm)
}

func (a *api) updateSentenceTerms(c *gin.Context) {
	var req struct {
		AdmissionDate        *string `json:"admission_date"`
		OriginalSentenceDays *int    `json:"original_sentence_days"`
		ClearAdmissionDate   bool    `json:"clear_admission_date"`
		ClearSentence        bool    `json:"clear_sentence"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := inmate.UpdateSentenceTermsInput{
		OriginalSentenceDays: req.OriginalSentenceDays,
		ClearAdmissionDate:   req.ClearAdmissionDate,
		ClearSentence:        req.ClearSentence,
	}
	if req.AdmissionDate != nil {
		d, err := parseDate(*req.AdmissionDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admission_date"})
			return
		}
		in.AdmissionDate = d
	}
	inm, err := a.inmates.UpdateSentenceTerms(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, inm)
}

func (a *api) recalculateSentence(c *gin.Context) {
	inm, err := a.inmates.RecalculateSentence(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, inm)
}

func (a *api) dischargeInmate(c *gin.Context) {
	if err := a.inmates.Discharge(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) addPoints(c *gin.Context) {
	var req struct {
		Delta        int     `json:"delta"`
		Activity     string  `json:"activity" binding:"required"`
		Notes        *string `json:"notes"`
		ActivityDate string  `json:"activity_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var activityDate time.Time
	if d, err := parseDate(req.ActivityDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity_date"})
		return
	} else if d != nil {
		activityDate = *d
	}
	inm, err := a.inmates.AddPoints(c.Request.Context(), c.Param("id"), inmate.AddPointsInput{
		Delta:        req.Delta,
		Activity:     req.Activity,
		Notes:        req.Notes,
		ActivityDate: activityDate,
		RecordedBy:   auth.ActingUser(c),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	metrics.PointsEvents.Inc()

	next, needed, hasNext := inmate.NextTier(inm.CurrentPoints)
	resp := gin.H{
		"inmate":       inm,
		"current_tier": inmate.CurrentTier(inm.CurrentPoints),
	}
	if hasNext {
		resp["next_tier"] = next
		resp["points_needed"] = needed
	}
	c.JSON(http.StatusOK, resp)
}

func (a *api) pointsHistory(c *gin.Context) {
	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	entries, err := a.inmates.History(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (a *api) tiers(c *gin.Context) {
	points, err := strconv.Atoi(c.Query("points"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points query param required"})
		return
	}
	resp := gin.H{
		"points":         points,
		"reduction_days": inmate.ReductionForPoints(points),
		"current_tier":   inmate.CurrentTier(points),
	}
	if next, needed, ok := inmate.NextTier(points); ok {
		resp["next_tier"] = next
		resp["points_needed"] = needed
	}
	c.JSON(http.StatusOK, resp)
}

// formDocument reads an optional multipart file, falling back to a
// previously stored path field (edit/resubmit case).
func formDocument(c *gin.Context, fileField, pathField string) (visitation.Document, error) {
	file, err := c.FormFile(fileField)
	if err != nil {
		return visitation.Document{ExistingPath: c.PostForm(pathField)}, nil
	}
	f, err := file.Open()
	if err != nil {
		return visitation.Document{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return visitation.Document{}, err
	}
	return visitation.Document{Upload: data, Filename: file.Filename}, nil
}

func optForm(c *gin.Context, field string) *string {
	if v := c.PostForm(field); v != "" {
		return &v
	}
	return nil
}

func (a *api) registerVisitor(c *gin.Context) {
	startDate, err := parseDate(c.PostForm("relationship_start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid relationship_start_date"})
		return
	}
	cert, err := formDocument(c, "cohabitation_cert", "cohabitation_cert_path")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read cohabitation_cert failed"})
		return
	}
	contract, err := formDocument(c, "marriage_contract", "marriage_contract_path")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read marriage_contract failed"})
		return
	}

	visitor, err := a.visits.RegisterVisitor(c.Request.Context(), c.Param("id"), visitation.VisitorInput{
		FirstName:             c.PostForm("first_name"),
		LastName:              c.PostForm("last_name"),
		Relationship:          c.PostForm("relationship"),
		IDNumber:              optForm(c, "id_number"),
		Phone:                 optForm(c, "phone"),
		Address:               optForm(c, "address"),
		PhotoURL:              optForm(c, "photo_url"),
		RelationshipStartDate: startDate,
	}, visitation.Documents{
		CohabitationCert: cert,
		MarriageContract: contract,
	}, auth.ActingUser(c))
	if err != nil {
		if domain.IsValidation(err) {
			metrics.VisitorRegistrations.WithLabelValues("rejected").Inc()
		} else {
			metrics.VisitorRegistrations.WithLabelValues("error").Inc()
		}
		respondErr(c, err)
		return
	}
	metrics.VisitorRegistrations.WithLabelValues("created").Inc()

	// Queue face enrollment when a photo was provided.
	if visitor.PhotoURL != nil {
		if err := a.q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeFaceEnroll, Body: []byte(visitor.ID)}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
	}
	c.JSON(http.StatusCreated, visitor)
}

func (a *api) listVisitors(c *gin.Context) {
	visitors, err := a.visits.ListVisitors(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visitors": visitors})
}

func (a *api) getVisitor(c *gin.Context) {
	visitor, err := a.visits.GetVisitor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, visitor)
}

func (a *api) conjugalEligibility(c *gin.Context) {
	reg, elig, err := a.visits.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"registration": reg,
		"eligibility":  elig,
		"label":        elig.Label(),
		"status_label": reg.Status.Label(),
		"ready":        elig.Valid && reg.Status == visitation.StatusApproved,
	})
}

func (a *api) setConjugalStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var status visitation.ConjugalStatus
	switch req.Status {
	case "approved":
		status = visitation.StatusApproved
	case "denied":
		status = visitation.StatusDenied
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be approved or denied"})
		return
	}
	if err := a.visits.SetStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status.Label()})
}

func (a *api) logConjugalVisit(c *gin.Context) {
	var req struct {
		VisitDate string  `json:"visit_date" binding:"required"`
		Notes     *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	visitDate, err := parseDate(req.VisitDate)
	if err != nil || visitDate == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid visit_date"})
		return
	}
	l, err := a.visits.LogVisit(c.Request.Context(), c.Param("id"), *visitDate, req.Notes, auth.ActingUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (a *api) listConjugalVisitLogs(c *gin.Context) {
	logs, err := a.visits.VisitLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (a *api) createVisitRequest(c *gin.Context) {
	var req struct {
		VisitorID string `json:"visitor_id" binding:"required"`
		ImageURL  string `json:"image_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vr, err := a.visits.RequestVisit(c.Request.Context(), req.VisitorID, req.ImageURL)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := a.q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeVisitRequest, Body: []byte(vr.ID)}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
	c.JSON(http.StatusAccepted, gin.H{"request_id": vr.ID, "status": vr.Status})
}

func (a *api) getVisitRequest(c *gin.Context) {
	vr, err := a.visits.GetVisitRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, vr)
}

func (a *api) createCell(c *gin.Context) {
	var req struct {
		Block    string `json:"block" binding:"required"`
		Number   string `json:"number" binding:"required"`
		Capacity int    `json:"capacity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cl := &cell.Cell{Block: req.Block, Number: req.Number, Capacity: req.Capacity}
	if err := a.cells.Create(c.Request.Context(), cl); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, cl)
}

func (a *api) getCell(c *gin.Context) {
	cl, err := a.cells.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

func (a *api) cellOccupancy(c *gin.Context) {
	summary, err := a.cells.OccupancySummary(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cells": summary})
}

func (a *api) createMedicalRecord(c *gin.Context) {
	diagnosis := c.PostForm("diagnosis")
	if diagnosis == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "diagnosis required"})
		return
	}
	rec := &medical.Record{
		InmateID:   c.Param("id"),
		Diagnosis:  diagnosis,
		Treatment:  optForm(c, "treatment"),
		RecordedBy: auth.ActingUser(c),
	}
	if file, err := c.FormFile("file"); err == nil {
		if a.cdn == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document storage not configured"})
			return
		}
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
			return
		}
		path, err := a.cdn.Store(c.Request.Context(), data, file.Filename, "medical-files")
		if err != nil {
			log.Printf("medical file upload failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "file upload failed"})
			return
		}
		rec.FilePath = &path
	}
	if err := a.medical.Create(c.Request.Context(), rec); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (a *api) listMedicalRecords(c *gin.Context) {
	records, err := a.medical.ListByInmate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (a *api) createStaff(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"full_name" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Role {
	case auth.RoleStaff, auth.RoleWarden, auth.RoleAdmin:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be staff, warden, or admin"})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	user := &staff.User{
		Username:     req.Username,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         req.Role,
	}
	if err := a.staff.Create(c.Request.Context(), user); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// upload pushes an image or document straight to Cloudinary and
// returns the public URL for use in later requests.
func (a *api) upload(c *gin.Context) {
	if a.cdn == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document storage not configured"})
		return
	}

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		url, err := a.cdn.Store(c.Request.Context(), data, file.Filename, c.PostForm("folder"))
		if err != nil {
			log.Printf("upload failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
		return
	}

	var body struct {
		Data   string `json:"data" binding:"required"`
		Folder string `json:"folder"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide a multipart file or {\"data\": \"<base64 data URL>\"}"})
		return
	}
	result, err := a.cdn.UploadBase64(c.Request.Context(), body.Data, body.Folder)
	if err != nil {
		log.Printf("upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": result.SecureURL, "public_id": result.PublicID, "bytes": result.Bytes})
}
