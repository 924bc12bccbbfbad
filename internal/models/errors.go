package models

import "errors"

var (
	// Configuration
	ErrMissingWebhookSecret = errors.New("secret du webhook Stripe non configuré")

	// Webhook
	ErrVerification     = errors.New("vérification de l'événement Stripe échouée")
	ErrUnsupportedEvent = errors.New("type d'événement non pris en charge")
	ErrMissingIdentity  = errors.New("email acheteur absent de la session")

	// Persistance
	ErrPersistence   = errors.New("échec de persistance de la commande")
	ErrOrderNotFound = errors.New("commande introuvable")

	// Requêtes
	ErrInvalidOrder      = errors.New("commande invalide")
	ErrEmptyCheckout     = errors.New("panier vide ou invalide")
	ErrMissingProductRef = errors.New("article sans identifiant produit")
)
