// Package schema mirrors the Homees tables as gorm models so they can be
// pushed to the Supabase Postgres database.
package schema

import "time"

// Utilisateur is a platform account. ID matches the Supabase auth user ID.
type Utilisateur struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Nom       string    `gorm:"not null;default:''"`
	Prenom    string    `gorm:"not null;default:''"`
	Telephone string    `gorm:"not null;default:''"`
	Role      string    `gorm:"not null;check:chk_utilisateurs_role,role IN ('proprietaire','gestionnaire','admin')"`
	AvatarURL string    `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Utilisateur) TableName() string { return "utilisateurs" }

// ProfilProprietaire holds owner-specific details.
type ProfilProprietaire struct {
	UserID      string       `gorm:"type:uuid;primaryKey"`
	User        *Utilisateur `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	NombreBiens int          `gorm:"not null;default:0"`
	Adresse     string       `gorm:"not null;default:''"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime"`
}

func (ProfilProprietaire) TableName() string { return "profil_proprietaire" }

// ProfilGestionnaire holds manager-specific details.
type ProfilGestionnaire struct {
	UserID         string       `gorm:"type:uuid;primaryKey"`
	User           *Utilisateur `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Entreprise     string       `gorm:"not null;default:''"`
	Siret          string       `gorm:"not null;default:''"`
	Villes         []string     `gorm:"type:jsonb;serializer:json"`
	TauxCommission *float64
	Description    string    `gorm:"not null;default:''"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (ProfilGestionnaire) TableName() string { return "profil_gestionnaire" }

// Propriete is a property listed by an owner.
type Propriete struct {
	ID             string       `gorm:"type:uuid;primaryKey"`
	ProprietaireID string       `gorm:"type:uuid;not null;index"`
	Proprietaire   *Utilisateur `gorm:"foreignKey:ProprietaireID;constraint:OnDelete:CASCADE"`
	GestionnaireID *string      `gorm:"type:uuid;index"`
	Gestionnaire   *Utilisateur `gorm:"foreignKey:GestionnaireID;constraint:OnDelete:SET NULL"`
	Titre          string       `gorm:"not null"`
	Adresse        string       `gorm:"not null"`
	Ville          string       `gorm:"not null;default:''"`
	CodePostal     string       `gorm:"not null;default:''"`
	Type           string       `gorm:"not null"`
	Surface        *float64
	Pieces         *int64
	Loyer          *float64
	DPE            *string   `gorm:"column:dpe;check:chk_propriete_dpe,dpe IN ('A','B','C','D','E','F','G')"`
	Description    string    `gorm:"not null;default:''"`
	PhotoURL       string    `gorm:"not null;default:''"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Propriete) TableName() string { return "propriete" }

// Intervention is work scheduled on a property.
type Intervention struct {
	ID          string     `gorm:"type:uuid;primaryKey"`
	ProprieteID string     `gorm:"type:uuid;not null;index"`
	Propriete   *Propriete `gorm:"foreignKey:ProprieteID;constraint:OnDelete:CASCADE"`
	Date        string     `gorm:"not null"`
	Type        string     `gorm:"not null"`
	Statut      string     `gorm:"not null;default:'planifiee'"`
	Notes       string     `gorm:"not null;default:''"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
}

func (Intervention) TableName() string { return "interventions" }

// Demande is a request thread between an owner and a manager.
type Demande struct {
	ID             string       `gorm:"type:uuid;primaryKey"`
	ProprietaireID string       `gorm:"type:uuid;not null;index"`
	Proprietaire   *Utilisateur `gorm:"foreignKey:ProprietaireID;constraint:OnDelete:CASCADE"`
	GestionnaireID string       `gorm:"type:uuid;not null;index"`
	Gestionnaire   *Utilisateur `gorm:"foreignKey:GestionnaireID;constraint:OnDelete:CASCADE"`
	ProprieteID    *string      `gorm:"type:uuid"`
	Propriete      *Propriete   `gorm:"foreignKey:ProprieteID;constraint:OnDelete:SET NULL"`
	Sujet          string       `gorm:"not null"`
	Statut         string       `gorm:"not null;default:'en_attente'"`
	CreatedAt      time.Time    `gorm:"autoCreateTime"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime"`
}

func (Demande) TableName() string { return "demande" }

// Message is a note posted on a demande.
type Message struct {
	ID           string       `gorm:"type:uuid;primaryKey"`
	DemandeID    string       `gorm:"type:uuid;not null;index"`
	Demande      *Demande     `gorm:"foreignKey:DemandeID;constraint:OnDelete:CASCADE"`
	ExpediteurID string       `gorm:"type:uuid;not null"`
	Expediteur   *Utilisateur `gorm:"foreignKey:ExpediteurID;constraint:OnDelete:CASCADE"`
	Contenu      string       `gorm:"not null"`
	Lu           bool         `gorm:"not null;default:false"`
	CreatedAt    time.Time    `gorm:"autoCreateTime"`
}

func (Message) TableName() string { return "messages" }

// Notification is an in-app notice for one user.
type Notification struct {
	ID        string       `gorm:"type:uuid;primaryKey"`
	UserID    string       `gorm:"type:uuid;not null;index:idx_notifications_user"`
	User      *Utilisateur `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Type      string       `gorm:"not null"`
	Message   string       `gorm:"not null"`
	Lien      string       `gorm:"not null;default:''"`
	Lu        bool         `gorm:"not null;default:false;index:idx_notifications_user"`
	CreatedAt time.Time    `gorm:"autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }
