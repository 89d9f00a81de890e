package constants

// Messages d'erreur HTTP courants
const (
	ErrMethodNotAllowed    = "Méthode non autorisée"
	ErrServerError         = "Erreur serveur"
	ErrNotAuthenticated    = "Non authentifié"
	ErrInvalidJSONBody     = "Body JSON invalide"
	ErrInvalidSubscription = "Abonnement invalide"
	ErrForeignRecipient    = "Action impossible pour un autre destinataire"
	ErrRegistryUnavailable = "Registre d'abonnements indisponible"
	ErrHistoryDisabled     = "Historique des rapports désactivé"
)

// En-têtes HTTP
const (
	HeaderContentType     = "Content-Type"
	HeaderApplicationJSON = "application/json"
)

// Rôles des appelants de l'API
const (
	RoleService = "service" // services internes (rappels de prise, messagerie)
	RoleAdmin   = "admin"
)
