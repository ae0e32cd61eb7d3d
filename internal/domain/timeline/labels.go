package timeline

import (
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

const (
	titleCreated     = "Talep oluşturuldu"
	titleAdminNote   = "Admin Notu"
	titleNote        = "Not eklendi"
	titleUpdated     = "Talep güncellendi"
	titleStatusOther = "Durum güncellendi"
	titleSentOther   = "Gönderildi"
	waitingDefault   = "İşlem bekleniyor"
)

var statusTitles = map[workflow.Status]string{
	workflow.StatusPendingApproval:       "Onaya Gönderildi",
	workflow.StatusEvaluation:            "Değerlendirmeye Alındı",
	workflow.StatusApproved:              "Onaylandı",
	workflow.StatusRejected:              "Reddedildi",
	workflow.StatusLive:                  "Yayına Alındı",
	workflow.StatusCompleted:             "Tamamlandı",
	workflow.StatusImagePending:          "Creative Ajans'a Gönderildi",
	workflow.StatusDealerApprovalPending: "Bayi Onayına Gönderildi",
	workflow.StatusBrandApprovalPending:  "Marka Onayına Gönderildi",
}

var assigneeTitles = map[entity.Assignee]string{
	entity.AssigneeCreativeAgency: "Creative Ajans'a Gönderildi",
	entity.AssigneeDealer:         "Bayi Onayına Gönderildi",
	entity.AssigneeBrand:          "Marka Onayına Gönderildi",
}

var actionTitles = map[entity.Action]string{
	entity.ActionCreated:       titleCreated,
	entity.ActionNote:          titleNote,
	entity.ActionUpdated:       titleUpdated,
	entity.ActionFBPushAttempt: "Facebook'a gönderim denendi",
	entity.ActionFBPushSuccess: "Facebook'a gönderildi",
	entity.ActionFBPushFailed:  "Facebook gönderimi başarısız",
	entity.ActionFBStatusCheck: "Facebook durumu kontrol edildi",
	entity.ActionFileUpload:    "Dosya yüklendi",
	entity.ActionFileDelete:    "Dosya silindi",
}

var actionTypes = map[entity.Action]Type{
	entity.ActionCreated:       TypeCreated,
	entity.ActionSent:          TypeSent,
	entity.ActionNote:          TypeNote,
	entity.ActionUpdated:       TypeUpdated,
	entity.ActionFBPushAttempt: TypeFBAttempt,
	entity.ActionFBPushSuccess: TypeFBSuccess,
	entity.ActionFBPushFailed:  TypeFBFailed,
	entity.ActionFBStatusCheck: TypeFBAttempt,
	entity.ActionFileUpload:    TypeFileUpload,
	entity.ActionFileDelete:    TypeFileDelete,
}

var statusChangeTypes = map[workflow.Status]Type{
	workflow.StatusApproved:        TypeApproved,
	workflow.StatusRejected:        TypeRejected,
	workflow.StatusLive:            TypeLive,
	workflow.StatusCompleted:       TypeCompleted,
	workflow.StatusPendingApproval: TypeSent,
}

// WaitingLabel describes what a request in status s is waiting for
func WaitingLabel(kind workflow.Kind, s workflow.Status) string {
	switch s {
	case workflow.StatusDraft:
		return "Taslak - İşlem bekleniyor"
	case workflow.StatusImagePending:
		return "Creative Ajans'tan görsel bekleniyor"
	case workflow.StatusDealerApprovalPending:
		return "Bayi onayı bekleniyor"
	case workflow.StatusBrandApprovalPending:
		return "Marka onayı bekleniyor"
	case workflow.StatusPendingApproval:
		return "Onay bekleniyor"
	case workflow.StatusEvaluation:
		return "Değerlendirme bekleniyor"
	}
	if kind == workflow.KindCampaign {
		switch s {
		case workflow.StatusApproved:
			return "Yayına alınması bekleniyor"
		case workflow.StatusLive:
			return "Kampanya yayında"
		}
	}
	return waitingDefault
}

// StatusTitle is the human title of entering status s
func StatusTitle(s workflow.Status) string {
	if t, ok := statusTitles[s]; ok {
		return t
	}
	return titleStatusOther
}
