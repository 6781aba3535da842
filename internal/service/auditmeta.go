package service

import "compliancehub/internal/model"

// Metadata builders for audit events. Each state-changing operation has one
// builder with a closed key set, so callers cannot drift from the canonical
// shape. The projector still passes unknown keys through for entries written
// by older builds.

func statusChange(from, to string) map[string]any {
	return map[string]any{"status": []any{from, to}}
}

func evidenceCreatedMeta(ev *model.Evidence) map[string]any {
	return map[string]any{
		"evidenceId": ev.ID,
		"factoryId":  ev.FactoryUserID,
		"docType":    ev.DocType,
	}
}

func versionAddedMeta(ev *model.Evidence, ver *model.EvidenceVersion) map[string]any {
	return map[string]any{
		"evidenceId":    ev.ID,
		"factoryId":     ev.FactoryUserID,
		"versionNumber": ver.VersionNumber,
	}
}

func requestCreatedMeta(req *model.Request) map[string]any {
	return map[string]any{
		"buyerId":   req.BuyerUserID,
		"factoryId": req.FactoryUserID,
		"title":     req.Title,
	}
}

func requestStatusMeta(req *model.Request, from, to model.RequestStatus) map[string]any {
	return map[string]any{
		"buyerId":   req.BuyerUserID,
		"factoryId": req.FactoryUserID,
		"changes":   statusChange(string(from), string(to)),
	}
}

func itemFulfilledMeta(req *model.Request, item *model.RequestItem, ver *model.EvidenceVersion) map[string]any {
	return map[string]any{
		"requestId":  req.ID,
		"buyerId":    req.BuyerUserID,
		"factoryId":  req.FactoryUserID,
		"docType":    item.DocType,
		"evidenceId": ver.EvidenceID,
		"versionId":  ver.ID,
		"changes":    statusChange(string(model.ItemPending), string(model.ItemFulfilled)),
	}
}

func itemStatusMeta(req *model.Request, item *model.RequestItem, from, to model.ItemStatus) map[string]any {
	return map[string]any{
		"requestId": req.ID,
		"buyerId":   req.BuyerUserID,
		"factoryId": req.FactoryUserID,
		"docType":   item.DocType,
		"changes":   statusChange(string(from), string(to)),
	}
}

func downloadMeta(ev *model.Evidence, ver *model.EvidenceVersion) map[string]any {
	return map[string]any{
		"evidenceId":    ev.ID,
		"docType":       ev.DocType,
		"versionNumber": ver.VersionNumber,
	}
}
