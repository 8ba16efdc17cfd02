package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"epk-api-go/contact"
	"epk-api-go/logcolors"
	"epk-api-go/middleware"
	"epk-api-go/stats"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// maxContactBodyBytes bounds the JSON body of a contact submission
const maxContactBodyBytes = 64 << 10

func (s *server) submitContact(w http.ResponseWriter, r *http.Request) {
	if s.contacts == nil {
		Respond(w, r).Error(http.StatusServiceUnavailable, "contact store unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxContactBodyBytes)
	var sub contact.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		stats.Get().RecordContact(false)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Respond(w, r).Error(http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Respond(w, r).Error(http.StatusBadRequest, "request body must be a JSON object with name, email and message")
		return
	}

	msg, err := s.contacts.Save(sub)
	if err != nil {
		stats.Get().RecordContact(false)
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			log.Infof("%s Rejected submission from %s: %v", logcolors.LogContact, middleware.ClientIP(r), verr)
			Respond(w, r).Status(http.StatusBadRequest, ErrorResponse{
				Error:   http.StatusText(http.StatusBadRequest),
				Message: verr.Error(),
				Fields:  verr.Fields,
			})
			return
		}
		log.Errorf("%s Failed to store submission: %v", logcolors.LogContact, err)
		Respond(w, r).Error(http.StatusInternalServerError, "failed to store message")
		return
	}

	stats.Get().RecordContact(true)
	log.Infof("%s Stored message %s from %s", logcolors.LogContact, msg.ID, middleware.ClientIP(r))
	if s.dispatcher != nil {
		s.dispatcher.NotifyContact(msg)
	}

	Respond(w, r).Status(http.StatusCreated, ContactCreatedResponse{
		ID:        msg.ID,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		Message:   "Thanks, your message was received",
	})
}

func (s *server) listContactMessages(w http.ResponseWriter, r *http.Request) {
	if s.contacts == nil {
		Respond(w, r).Error(http.StatusServiceUnavailable, "contact store unavailable")
		return
	}
	messages := s.contacts.List()
	Respond(w, r).JSON(ContactListResponse{Count: len(messages), Messages: messages})
}

func (s *server) deleteContactMessage(w http.ResponseWriter, r *http.Request) {
	if s.contacts == nil {
		Respond(w, r).Error(http.StatusServiceUnavailable, "contact store unavailable")
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.contacts.Delete(id); err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			Respond(w, r).Error(http.StatusNotFound, err.Error())
			return
		}
		log.Errorf("%s Failed to delete message %s: %v", logcolors.LogContactStore, id, err)
		Respond(w, r).Error(http.StatusInternalServerError, "failed to delete message")
		return
	}

	log.Infof("%s Deleted message %s", logcolors.LogContactStore, id)
	Respond(w, r).NoContent()
}

func (s *server) backupContacts(w http.ResponseWriter, r *http.Request) {
	if s.contacts == nil {
		Respond(w, r).Error(http.StatusServiceUnavailable, "contact store unavailable")
		return
	}

	path, err := s.contacts.Backup()
	if err != nil {
		log.Errorf("%s Backup failed: %v", logcolors.LogContactBackup, err)
		Respond(w, r).Error(http.StatusInternalServerError, "backup failed")
		return
	}

	Respond(w, r).Status(http.StatusCreated, map[string]interface{}{
		"message":  "Backup created successfully",
		"path":     path,
		"messages": s.contacts.Count(),
	})
}

func (s *server) listContactBackups(w http.ResponseWriter, r *http.Request) {
	if s.contacts == nil {
		Respond(w, r).Error(http.StatusServiceUnavailable, "contact store unavailable")
		return
	}

	backups, err := s.contacts.ListBackups()
	if err != nil {
		log.Errorf("%s Failed to list backups: %v", logcolors.LogContactBackup, err)
		Respond(w, r).Error(http.StatusInternalServerError, "failed to list backups")
		return
	}

	Respond(w, r).JSON(map[string]interface{}{
		"count":   len(backups),
		"backups": backups,
	})
}
