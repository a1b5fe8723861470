package wordpress

import "strings"

// Allow-lists shared by the AST collector and the regex fallback.

// hookFunctions are the core WordPress hook API functions
var hookFunctions = []string{"add_action", "add_filter", "do_action", "apply_filters"}

// enqueueFunctions are only reported as patterns by the regex fallback
var enqueueFunctions = []string{"wp_enqueue_script", "wp_enqueue_style"}

var databaseFunctions = []string{
	"get_option", "update_option", "delete_option", "add_option",
	"get_post_meta", "update_post_meta", "delete_post_meta", "add_post_meta",
	"get_user_meta", "update_user_meta", "delete_user_meta", "add_user_meta",
	"wp_insert_post", "wp_update_post", "wp_delete_post",
	"wp_insert_user", "wp_update_user", "wp_delete_user",
}

var securityFunctions = []string{
	"wp_verify_nonce", "wp_create_nonce", "check_admin_referer",
	"sanitize_text_field", "sanitize_email", "sanitize_url",
	"esc_html", "esc_attr", "esc_url", "wp_kses", "wp_kses_post",
	"current_user_can", "is_admin", "is_user_logged_in",
}

// databaseRecommendationTriggers produce the database_tests recommendation
var databaseRecommendationTriggers = []string{"get_option", "update_option", "wp_insert_post"}

const (
	ajaxHookPrefix       = "wp_ajax_"
	ajaxPublicHookPrefix = "wp_ajax_nopriv_"
	restRouteFunction    = "register_rest_route"
	wpdbVariable         = "wpdb"
	wpdbDirectType       = "wpdb_direct"
	unknownValue         = "unknown"
	arrayCallback        = "array_callback"
	defaultHookPriority  = 10
)

// defaultRestMethods is reported for every REST endpoint; the methods
// argument of register_rest_route is not read.
var defaultRestMethods = []string{"GET"}

// DbCategory groups database operations
type DbCategory string

const (
	DbOptions        DbCategory = "options"
	DbPosts          DbCategory = "posts"
	DbUsers          DbCategory = "users"
	DbMetadata       DbCategory = "metadata"
	DbDirectDatabase DbCategory = "direct_database"
	DbGeneral        DbCategory = "general"
)

// SecurityCategory groups security calls
type SecurityCategory string

const (
	SecurityNonce    SecurityCategory = "nonce_verification"
	SecuritySanitize SecurityCategory = "data_sanitization"
	SecurityEscaping SecurityCategory = "output_escaping"
	SecurityAuthz    SecurityCategory = "authorization"
	SecurityGeneral  SecurityCategory = "general_security"
)

var (
	databaseSet = toSet(databaseFunctions)
	securitySet = toSet(securityFunctions)
	hookSet     = toSet(hookFunctions)
	dbTriggers  = toSet(databaseRecommendationTriggers)
)

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// categorizeDatabase checks substrings in priority order, so
// update_post_meta is "posts", not "metadata".
func categorizeDatabase(function string) DbCategory {
	switch {
	case strings.Contains(function, "option"):
		return DbOptions
	case strings.Contains(function, "post"):
		return DbPosts
	case strings.Contains(function, "user"):
		return DbUsers
	case strings.Contains(function, "meta"):
		return DbMetadata
	}
	return DbGeneral
}

func categorizeSecurity(function string) SecurityCategory {
	switch {
	case strings.Contains(function, "nonce"), strings.Contains(function, "referer"):
		return SecurityNonce
	case strings.Contains(function, "sanitize"):
		return SecuritySanitize
	case strings.Contains(function, "esc_"), strings.Contains(function, "kses"):
		return SecurityEscaping
	case strings.Contains(function, "can"), strings.Contains(function, "admin"), strings.Contains(function, "logged"):
		return SecurityAuthz
	}
	return SecurityGeneral
}
