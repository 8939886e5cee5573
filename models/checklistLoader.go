package models

import (
	"context"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type sectionSeed struct {
	number      string
	title       string
	description string
}

type categorySeed struct {
	name        string
	description string
	section     string
	order       int
}

type itemSeed struct {
	code             string
	title            string
	description      string
	guidance         string
	evidenceRequired string
	severity         Severity
	category         string
	order            int
}

// ChecklistLoadResult counts rows created by one load. Existing rows are left as they are.
type ChecklistLoadResult struct {
	SectionsCreated   int
	CategoriesCreated int
	ItemsCreated      int
	TemplatesCreated  int
}

func checklistRowCounts(tx *gorm.DB) ([4]int64, error) {
	var counts [4]int64
	for i, model := range []interface{}{&Section{}, &AuditCategory{}, &ChecklistItem{}, &ReportTemplate{}} {
		if err := tx.Model(model).Count(&counts[i]).Error; err != nil {
			return counts, err
		}
	}
	return counts, nil
}

const defaultTemplateName = "Standard DPDP Compliance Report"

// LoadChecklist seeds the master checklist. It is keyed on section number, category name and item code,
// so running it again creates nothing.
func LoadChecklist(ctx context.Context) (*ChecklistLoadResult, error) {
	release, err := utils.ObtainLock(ctx, "checklist", "load", time.Minute)
	if err != nil {
		return nil, err
	}
	defer release()

	logger := config.GetLogger()
	var result ChecklistLoadResult
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := checklistRowCounts(tx)
		if err != nil {
			return err
		}

		sections := make(map[string]*Section, len(checklistSections))
		for _, seed := range checklistSections {
			section := Section{}
			res := tx.Where(Section{SectionNumber: seed.number}).
				Attrs(Section{Title: seed.title, Description: seed.description, IsActive: utils.NewTrue()}).
				FirstOrCreate(&section)
			if res.Error != nil {
				return res.Error
			}
			sections[seed.number] = &section
		}

		categories := make(map[string]*AuditCategory, len(checklistCategories))
		for _, seed := range checklistCategories {
			category := AuditCategory{}
			attrs := AuditCategory{Description: seed.description, SortOrder: seed.order, IsActive: utils.NewTrue()}
			if section, ok := sections[seed.section]; ok {
				attrs.SectionId = &section.ID
			}
			res := tx.Where(AuditCategory{Name: seed.name}).Attrs(attrs).FirstOrCreate(&category)
			if res.Error != nil {
				return res.Error
			}
			categories[seed.name] = &category
		}

		for _, seed := range checklistItems {
			item := ChecklistItem{}
			res := tx.Where(ChecklistItem{Code: seed.code}).
				Attrs(ChecklistItem{
					CategoryId:       categories[seed.category].ID,
					Title:            seed.title,
					Description:      seed.description,
					Guidance:         seed.guidance,
					EvidenceRequired: seed.evidenceRequired,
					Severity:         seed.severity,
					SortOrder:        seed.order,
					IsActive:         utils.NewTrue(),
				}).
				FirstOrCreate(&item)
			if res.Error != nil {
				return res.Error
			}
		}

		template := ReportTemplate{}
		res := tx.Where(ReportTemplate{Name: defaultTemplateName}).
			Attrs(ReportTemplate{
				Description: "Default layout with summary, score breakdown and findings per checklist item.",
				IsDefault:   utils.NewTrue(),
				IsActive:    utils.NewTrue(),
			}).
			FirstOrCreate(&template)
		if res.Error != nil {
			return res.Error
		}

		after, err := checklistRowCounts(tx)
		if err != nil {
			return err
		}
		result = ChecklistLoadResult{
			SectionsCreated:   int(after[0] - before[0]),
			CategoriesCreated: int(after[1] - before[1]),
			ItemsCreated:      int(after[2] - before[2]),
			TemplatesCreated:  int(after[3] - before[3]),
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, "checklistLoader.go", "LoadChecklist", "Transaction", nil, err)
		return nil, err
	}

	if err := RemoveRedisBoth(AuditCategory{}); err != nil {
		config.LogError(logger, "checklistLoader.go", "LoadChecklist", "RemoveRedisBoth", nil, err)
	}
	logger.WithFields(logrus.Fields{
		"sections":   result.SectionsCreated,
		"categories": result.CategoriesCreated,
		"items":      result.ItemsCreated,
		"templates":  result.TemplatesCreated,
	}).Info("[checklist.load]")
	return &result, nil
}

var checklistSections = []sectionSeed{
	{"4", "Application of Act", "Application of the Act to processing of digital personal data."},
	{"5", "Lawful Processing", "Processing of personal data for a lawful purpose."},
	{"6", "Consent", "Processing of personal data based on consent of data principal."},
	{"7", "Certain Legitimate Uses", "Processing for certain legitimate uses without consent."},
	{"8", "General Obligations of Data Fiduciary", "Obligations of data fiduciary including security and breach notification."},
	{"9", "Additional Obligations for Children", "Additional obligations for processing personal data of children."},
	{"10", "Significant Data Fiduciary", "Additional obligations for significant data fiduciaries."},
	{"11", "Rights and Duties of Data Principal", "Rights of data principals and their duties."},
	{"12", "Right to Information", "Right to obtain information about personal data processing."},
	{"13", "Right to Correction and Erasure", "Right to correction, completion, updating and erasure."},
	{"14", "Right of Grievance Redressal", "Right to have grievances addressed."},
	{"15", "Right to Nominate", "Right to nominate another person to exercise rights."},
	{"16", "Transfer of Personal Data Outside India", "Provisions for cross-border data transfer."},
	{"17", "Exemptions", "Exemptions from provisions of the Act."},
}

var checklistCategories = []categorySeed{
	{"Data Collection & Consent Management", "Compliance requirements for lawful collection and obtaining valid consent.", "6", 1},
	{"Purpose Limitation & Data Minimization", "Using data only for specified purposes and collecting only necessary data.", "5", 2},
	{"Data Fiduciary Obligations", "Security measures, accuracy, retention, and breach notification.", "8", 3},
	{"Children's Data Protection", "Special protections for processing personal data of children.", "9", 4},
	{"Data Principal Rights", "Implementation of rights to access, correction, erasure, and portability.", "11", 5},
	{"Significant Data Fiduciary Compliance", "Additional obligations for significant data fiduciaries.", "10", 6},
	{"Cross-Border Data Transfer", "Compliance with data localization and transfer requirements.", "16", 7},
	{"Grievance Redressal Mechanism", "Procedures for addressing data principal grievances.", "14", 8},
}

var checklistItems = []itemSeed{
	// Data Collection & Consent Management
	{"DC-001", "Consent Notice Clarity",
		"Clear, specific consent notice provided in plain language before data collection.",
		"Verify consent notice is displayed, understandable, and explains data usage clearly.",
		"Screenshots of consent UI, consent notice text",
		SeverityCritical, "Data Collection & Consent Management", 1},
	{"DC-002", "Affirmative Consent Action",
		"Consent obtained through affirmative action, not pre-ticked boxes or silence.",
		"Check consent mechanism requires explicit action by user.",
		"UI screenshots, user flow documentation",
		SeverityCritical, "Data Collection & Consent Management", 2},
	{"DC-003", "Consent Withdrawal Mechanism",
		"Easy mechanism for withdrawing consent with equal prominence as giving consent.",
		"Verify withdrawal option is accessible and effective.",
		"Withdrawal flow screenshots, user journey",
		SeverityCritical, "Data Collection & Consent Management", 3},
	{"DC-004", "Consent Records Maintenance",
		"Records of consent with timestamp and scope maintained securely.",
		"Review consent logging and record-keeping practices.",
		"Consent database schema, sample records",
		SeverityMajor, "Data Collection & Consent Management", 4},
	{"DC-005", "Bundled Consent Separation",
		"Consent for different purposes not bundled together inappropriately.",
		"Check if separate consents are obtained for distinct processing activities.",
		"Consent form design, processing activity mapping",
		SeverityMajor, "Data Collection & Consent Management", 5},

	// Purpose Limitation & Data Minimization
	{"PL-001", "Specified Purpose Documentation",
		"All purposes for data collection clearly documented and communicated.",
		"Review privacy policy and consent notices for purpose specification.",
		"Privacy policy, purpose inventory",
		SeverityCritical, "Purpose Limitation & Data Minimization", 1},
	{"PL-002", "Purpose Limitation Controls",
		"Technical controls preventing use of data beyond specified purposes.",
		"Verify access controls and data usage monitoring.",
		"Access control policies, data usage logs",
		SeverityMajor, "Purpose Limitation & Data Minimization", 2},
	{"PL-003", "Data Minimization Implementation",
		"Only necessary personal data collected for the specified purpose.",
		"Audit data fields collected against stated purposes.",
		"Data mapping, collection forms",
		SeverityMajor, "Purpose Limitation & Data Minimization", 3},

	// Data Fiduciary Obligations
	{"DF-001", "Security Safeguards Implementation",
		"Reasonable security safeguards implemented to prevent data breaches.",
		"Review security measures including encryption, access controls, monitoring.",
		"Security policy, encryption certificates, penetration test reports",
		SeverityCritical, "Data Fiduciary Obligations", 1},
	{"DF-002", "Data Accuracy Procedures",
		"Procedures to ensure personal data is accurate, complete, and up-to-date.",
		"Check data validation and update mechanisms.",
		"Data quality procedures, validation rules",
		SeverityMajor, "Data Fiduciary Obligations", 2},
	{"DF-003", "Data Retention Policy",
		"Data retention periods defined and enforced, data deleted when no longer needed.",
		"Review retention policy and deletion procedures.",
		"Retention schedule, deletion logs",
		SeverityMajor, "Data Fiduciary Obligations", 3},
	{"DF-004", "Breach Notification Procedures",
		"Procedures to notify Board and affected individuals of data breach.",
		"Verify incident response and notification procedures.",
		"Incident response plan, notification templates",
		SeverityCritical, "Data Fiduciary Obligations", 4},
	{"DF-005", "Data Processor Agreements",
		"Contractual agreements with data processors ensuring compliance.",
		"Review contracts with third-party processors.",
		"Processor agreements, vendor assessments",
		SeverityMajor, "Data Fiduciary Obligations", 5},

	// Children's Data Protection
	{"CD-001", "Age Verification Mechanism",
		"Verifiable age verification before collecting children's data.",
		"Check age gate implementation and verification methods.",
		"Age verification UI, verification logic",
		SeverityCritical, "Children's Data Protection", 1},
	{"CD-002", "Verifiable Parental Consent",
		"Verifiable consent from parent/guardian obtained for children.",
		"Verify parental consent workflow and verification.",
		"Parental consent forms, verification process",
		SeverityCritical, "Children's Data Protection", 2},
	{"CD-003", "No Behavioral Tracking",
		"No tracking, behavioral monitoring, or targeted advertising for children.",
		"Verify analytics and ad systems exclude children.",
		"Analytics configuration, ad policies",
		SeverityCritical, "Children's Data Protection", 3},
	{"CD-004", "No Detrimental Processing",
		"Processing does not cause detrimental effects on child's well-being.",
		"Review processing activities for potential harm.",
		"Impact assessment, content policies",
		SeverityMajor, "Children's Data Protection", 4},

	// Data Principal Rights
	{"DP-001", "Right to Access Implementation",
		"Data principals can access their personal data and processing details.",
		"Test data access request mechanism.",
		"Access request form, response samples",
		SeverityCritical, "Data Principal Rights", 1},
	{"DP-002", "Right to Correction",
		"Mechanism for correction, completion, and updating of personal data.",
		"Verify data correction functionality.",
		"Profile edit UI, correction request process",
		SeverityMajor, "Data Principal Rights", 2},
	{"DP-003", "Right to Erasure",
		"Mechanism for data erasure with appropriate retention exceptions.",
		"Test account deletion and data erasure process.",
		"Deletion flow, erasure verification",
		SeverityMajor, "Data Principal Rights", 3},
	{"DP-004", "Response Timeline Compliance",
		"Rights requests responded to within prescribed timelines.",
		"Review SLAs and response time tracking.",
		"SLA documentation, response time metrics",
		SeverityMajor, "Data Principal Rights", 4},

	// Significant Data Fiduciary Compliance
	{"SD-001", "DPO Appointment",
		"Data Protection Officer appointed and contact details published.",
		"Verify DPO appointment and public availability of contact.",
		"DPO appointment letter, published contact",
		SeverityCritical, "Significant Data Fiduciary Compliance", 1},
	{"SD-002", "Independent Auditor",
		"Independent data auditor appointed for periodic audits.",
		"Check auditor appointment and audit schedule.",
		"Auditor contract, audit reports",
		SeverityCritical, "Significant Data Fiduciary Compliance", 2},
	{"SD-003", "Data Protection Impact Assessment",
		"DPIA conducted for high-risk processing activities.",
		"Review DPIA documentation.",
		"DPIA reports, risk assessments",
		SeverityMajor, "Significant Data Fiduciary Compliance", 3},

	// Cross-Border Data Transfer
	{"CB-001", "Transfer Restriction Compliance",
		"Personal data not transferred to restricted territories.",
		"Verify data storage locations and transfer destinations.",
		"Data flow maps, hosting documentation",
		SeverityCritical, "Cross-Border Data Transfer", 1},
	{"CB-002", "Government Notification",
		"Central Government notified of specified data transfers.",
		"Check notification compliance for cross-border transfers.",
		"Transfer notifications, government approvals",
		SeverityMajor, "Cross-Border Data Transfer", 2},

	// Grievance Redressal Mechanism
	{"GR-001", "Grievance Officer Appointment",
		"Grievance redressal officer appointed with published contact.",
		"Verify officer appointment and contact availability.",
		"Appointment documentation, contact details",
		SeverityCritical, "Grievance Redressal Mechanism", 1},
	{"GR-002", "Grievance Resolution Timeline",
		"Grievances resolved within prescribed timelines.",
		"Review grievance handling SLAs and metrics.",
		"SLA documentation, resolution metrics",
		SeverityMajor, "Grievance Redressal Mechanism", 2},
	{"GR-003", "Grievance Tracking System",
		"System for logging and tracking grievances to resolution.",
		"Verify grievance management system.",
		"Ticketing system, tracking reports",
		SeverityMajor, "Grievance Redressal Mechanism", 3},
}
